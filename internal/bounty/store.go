package bounty

import "context"

// Store describes the persistence operations required by the service.
type Store interface {
	Users() UserStore
	Programs() ProgramStore
	Reports() ReportStore
}

// UserStore manages actor records.
type UserStore interface {
	// Create persists a new user. A duplicate email yields ErrConflict.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// ProgramStore manages bounty programs.
type ProgramStore interface {
	Create(ctx context.Context, p *Program) error
	Find(ctx context.Context, id string) (*Program, error)
	List(ctx context.Context) ([]*Program, error)
	Update(ctx context.Context, id string, upd ProgramUpdate) (*Program, error)
	// Delete removes the program and cascades to its reports.
	Delete(ctx context.Context, id string) error
}

// ReportStore manages vulnerability reports.
type ReportStore interface {
	Create(ctx context.Context, r *Report) error
	Find(ctx context.Context, id string) (*Report, error)
	ListByProgram(ctx context.Context, programID string) ([]*Report, error)
	ListByProgramAndResearcher(ctx context.Context, programID, researcherID string) ([]*Report, error)
	UpdateStatus(ctx context.Context, id string, upd ReportStatusUpdate) (*Report, error)
}

// ProgramUpdate carries partial program changes. Nil fields retain their
// stored values. The owning company is not representable here: ownership is
// immutable.
type ProgramUpdate struct {
	Name        *string
	Description *string
	Scope       *string
	RewardMin   *int64
	RewardMax   *int64
}

// ReportStatusUpdate carries partial workflow changes. Nil fields retain
// their stored values.
type ReportStatusUpdate struct {
	Status   *Status
	Severity *Severity
}
