package bounty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bountyhub.org/internal/auth"
	"bountyhub.org/internal/ids"
)

// Service applies the domain's validation and authorization rules on top of a
// Store. Ownership-gated operations follow a fixed order: existence check
// first (ErrNotFound), then the ownership comparison (ErrForbidden), then the
// mutation. A missing resource is never reported as forbidden.
type Service struct {
	store Store
	now   func() time.Time

	// allowRoleSelect mirrors the upstream registration behavior of trusting
	// the client-supplied role. See config.AuthConfig.
	allowRoleSelect bool
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithRoleSelect toggles whether registration honors a client-supplied role.
// When disabled every registration is created as RESEARCHER.
func WithRoleSelect(allow bool) ServiceOption {
	return func(s *Service) { s.allowRoleSelect = allow }
}

// NewService constructs a Service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	svc := &Service{
		store:           store,
		now:             time.Now,
		allowRoleSelect: true,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterInput is the registration payload after transport-level decoding.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates a new user with a hashed credential. A duplicate email
// yields ErrConflict.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}

	role := RoleResearcher
	if s.allowRoleSelect && strings.TrimSpace(input.Role) != "" {
		parsed, err := ParseRole(input.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		ID:           ids.NewWithPrefix(ids.PrefixUser),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the matching user. Unknown email and
// wrong password both map to ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users().Find(ctx, id)
}

// ProgramInput is the program creation payload.
type ProgramInput struct {
	Name        string
	Description string
	Scope       string
	RewardMin   int64
	RewardMax   int64
}

// CreateProgram creates a program owned by the acting company. The owner id
// always comes from the authenticated actor, never from the payload.
// RewardMin/RewardMax are stored as supplied; no min<=max ordering is
// enforced, matching the upstream behavior.
func (s *Service) CreateProgram(ctx context.Context, actor *User, input ProgramInput) (*Program, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	scope := strings.TrimSpace(input.Scope)
	if name == "" || description == "" || scope == "" {
		return nil, fmt.Errorf("%w: name, description and scope are required", ErrInvalidInput)
	}

	now := s.now().UTC()
	program := &Program{
		ID:          ids.NewWithPrefix(ids.PrefixProgram),
		Name:        name,
		Description: description,
		Scope:       scope,
		RewardMin:   input.RewardMin,
		RewardMax:   input.RewardMax,
		CompanyID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Programs().Create(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

// ListPrograms returns all programs. Public.
func (s *Service) ListPrograms(ctx context.Context) ([]*Program, error) {
	return s.store.Programs().List(ctx)
}

// GetProgram loads a program by id. Public.
func (s *Service) GetProgram(ctx context.Context, id string) (*Program, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	return s.store.Programs().Find(ctx, id)
}

// UpdateProgram applies a partial update after the ownership gate.
func (s *Service) UpdateProgram(ctx context.Context, actor *User, id string, upd ProgramUpdate) (*Program, error) {
	program, err := s.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Owns(actor, program) {
		return nil, fmt.Errorf("%w: program %s", ErrForbidden, program.ID)
	}
	return s.store.Programs().Update(ctx, program.ID, upd)
}

// DeleteProgram removes a program and its reports after the ownership gate.
func (s *Service) DeleteProgram(ctx context.Context, actor *User, id string) error {
	program, err := s.GetProgram(ctx, id)
	if err != nil {
		return err
	}
	if !Owns(actor, program) {
		return fmt.Errorf("%w: program %s", ErrForbidden, program.ID)
	}
	return s.store.Programs().Delete(ctx, program.ID)
}

// ReportInput is the report submission payload.
type ReportInput struct {
	Title       string
	Description string
	ProgramID   string
	Severity    string
}

// CreateReport submits a report against an existing program on behalf of the
// acting researcher. Severity defaults to LOW, status to OPEN.
func (s *Service) CreateReport(ctx context.Context, actor *User, input ReportInput) (*Report, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	programID := strings.TrimSpace(input.ProgramID)
	if title == "" || description == "" || programID == "" {
		return nil, fmt.Errorf("%w: title, description and program id are required", ErrInvalidInput)
	}

	severity := SeverityLow
	if strings.TrimSpace(input.Severity) != "" {
		severity = Severity(strings.ToUpper(strings.TrimSpace(input.Severity)))
		if !severity.Valid() {
			return nil, fmt.Errorf("%w: unsupported severity %q", ErrInvalidInput, input.Severity)
		}
	}

	program, err := s.store.Programs().Find(ctx, programID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	report := &Report{
		ID:           ids.NewWithPrefix(ids.PrefixReport),
		Title:        title,
		Description:  description,
		Severity:     severity,
		Status:       StatusOpen,
		ProgramID:    program.ID,
		ResearcherID: actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Reports().Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport loads a single report. Visible only to the submitting researcher
// or the company owning the parent program.
func (s *Service) GetReport(ctx context.Context, actor *User, id string) (*Report, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	report, err := s.store.Reports().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	program, err := s.store.Programs().Find(ctx, report.ProgramID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role == RoleResearcher && report.SubmittedBy(actor.ID):
		return report, nil
	case actor.Role == RoleCompany && Owns(actor, program):
		return report, nil
	}
	return nil, fmt.Errorf("%w: report %s", ErrForbidden, report.ID)
}

// ListProgramReports returns a program's reports. A company actor must own
// the program and sees every report; any other authenticated actor is never
// rejected but sees only their own submissions.
func (s *Service) ListProgramReports(ctx context.Context, actor *User, programID string) ([]*Report, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	program, err := s.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if actor.Role == RoleCompany {
		if !Owns(actor, program) {
			return nil, fmt.Errorf("%w: program %s", ErrForbidden, program.ID)
		}
		return s.store.Reports().ListByProgram(ctx, program.ID)
	}
	return s.store.Reports().ListByProgramAndResearcher(ctx, program.ID, actor.ID)
}

// UpdateReportStatus changes a report's status and/or severity. Only the
// company owning the parent program may call this; at least one field must be
// supplied. Any enum member may follow any other: there is no transition
// graph.
func (s *Service) UpdateReportStatus(ctx context.Context, actor *User, id string, upd ReportStatusUpdate) (*Report, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrInvalidInput)
	}
	if upd.Status == nil && upd.Severity == nil {
		return nil, fmt.Errorf("%w: status or severity must be provided", ErrInvalidInput)
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unsupported status %q", ErrInvalidInput, *upd.Status)
	}
	if upd.Severity != nil && !upd.Severity.Valid() {
		return nil, fmt.Errorf("%w: unsupported severity %q", ErrInvalidInput, *upd.Severity)
	}

	report, err := s.store.Reports().Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	program, err := s.store.Programs().Find(ctx, report.ProgramID)
	if err != nil {
		return nil, err
	}
	if !Owns(actor, program) {
		return nil, fmt.Errorf("%w: report %s", ErrForbidden, report.ID)
	}
	return s.store.Reports().UpdateStatus(ctx, report.ID, upd)
}
