// Package pg implements the bounty store on PostgreSQL via database/sql and
// the pgx stdlib driver.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"bountyhub.org/internal/bounty"
)

// uniqueViolation is the Postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// Store implements bounty.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ bounty.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() bounty.UserStore       { return &userStore{db: s.db} }
func (s *Store) Programs() bounty.ProgramStore { return &programStore{db: s.db} }
func (s *Store) Reports() bounty.ReportStore   { return &reportStore{db: s.db} }

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return bounty.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return bounty.ErrConflict
	}
	return err
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *bounty.User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, email, password_hash, role, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	return translateErr(err)
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row *sql.Row) (*bounty.User, error) {
	var (
		u    bounty.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	u.Role = bounty.Role(role)
	return &u, nil
}

func (s *userStore) Find(ctx context.Context, id string) (*bounty.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*bounty.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, strings.ToLower(email)))
}

// Program store ------------------------------------------------------------

type programStore struct{ db *sql.DB }

const programColumns = `id, name, description, scope, reward_min, reward_max, company_id, created_at, updated_at`

func (s *programStore) Create(ctx context.Context, p *bounty.Program) error {
	_, err := s.db.ExecContext(ctx,
		`insert into programs(id, name, description, scope, reward_min, reward_max, company_id, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.Name, p.Description, p.Scope, p.RewardMin, p.RewardMax, p.CompanyID, p.CreatedAt, p.UpdatedAt,
	)
	return translateErr(err)
}

func scanProgram(scan func(dest ...any) error) (*bounty.Program, error) {
	var p bounty.Program
	if err := scan(&p.ID, &p.Name, &p.Description, &p.Scope, &p.RewardMin, &p.RewardMax,
		&p.CompanyID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

func (s *programStore) Find(ctx context.Context, id string) (*bounty.Program, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+programColumns+` from programs where id=$1`, id)
	return scanProgram(row.Scan)
}

func (s *programStore) List(ctx context.Context) ([]*bounty.Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+programColumns+` from programs order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*bounty.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of upd. company_id is deliberately not
// updatable: ownership is immutable after creation.
func (s *programStore) Update(ctx context.Context, id string, upd bounty.ProgramUpdate) (*bounty.Program, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Scope != nil {
		add("scope", *upd.Scope)
	}
	if upd.RewardMin != nil {
		add("reward_min", *upd.RewardMin)
	}
	if upd.RewardMax != nil {
		add("reward_max", *upd.RewardMax)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(
		`update programs set %s where id=$%d returning `+programColumns,
		strings.Join(sets, ", "), len(args),
	)
	return scanProgram(s.db.QueryRowContext(ctx, query, args...).Scan)
}

func (s *programStore) Delete(ctx context.Context, id string) error {
	// Reports reference programs with on delete cascade; a single statement
	// removes the program and its reports.
	res, err := s.db.ExecContext(ctx, `delete from programs where id=$1`, id)
	if err != nil {
		return translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return bounty.ErrNotFound
	}
	return nil
}

// Report store -------------------------------------------------------------

type reportStore struct{ db *sql.DB }

const reportColumns = `id, title, description, severity, status, program_id, researcher_id, created_at, updated_at`

func (s *reportStore) Create(ctx context.Context, r *bounty.Report) error {
	_, err := s.db.ExecContext(ctx,
		`insert into reports(id, title, description, severity, status, program_id, researcher_id, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.Title, r.Description, string(r.Severity), string(r.Status),
		r.ProgramID, r.ResearcherID, r.CreatedAt, r.UpdatedAt,
	)
	return translateErr(err)
}

func scanReport(scan func(dest ...any) error) (*bounty.Report, error) {
	var (
		r        bounty.Report
		severity string
		status   string
	)
	if err := scan(&r.ID, &r.Title, &r.Description, &severity, &status,
		&r.ProgramID, &r.ResearcherID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	r.Severity = bounty.Severity(severity)
	r.Status = bounty.Status(status)
	return &r, nil
}

func (s *reportStore) Find(ctx context.Context, id string) (*bounty.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+reportColumns+` from reports where id=$1`, id)
	return scanReport(row.Scan)
}

func (s *reportStore) list(ctx context.Context, query string, args ...any) ([]*bounty.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*bounty.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *reportStore) ListByProgram(ctx context.Context, programID string) ([]*bounty.Report, error) {
	return s.list(ctx,
		`select `+reportColumns+` from reports where program_id=$1 order by created_at asc`,
		programID)
}

func (s *reportStore) ListByProgramAndResearcher(ctx context.Context, programID, researcherID string) ([]*bounty.Report, error) {
	return s.list(ctx,
		`select `+reportColumns+` from reports where program_id=$1 and researcher_id=$2 order by created_at asc`,
		programID, researcherID)
}

func (s *reportStore) UpdateStatus(ctx context.Context, id string, upd bounty.ReportStatusUpdate) (*bounty.Report, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Severity != nil {
		add("severity", string(*upd.Severity))
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(
		`update reports set %s where id=$%d returning `+reportColumns,
		strings.Join(sets, ", "), len(args),
	)
	return scanReport(s.db.QueryRowContext(ctx, query, args...).Scan)
}
