// Package mem provides a mutex-guarded in-memory implementation of the bounty
// store. It backs handler tests and DSN-less development runs; production
// deployments use the Postgres store.
package mem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bountyhub.org/internal/bounty"
)

// Store implements bounty.Store in memory.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*bounty.User
	programs map[string]*bounty.Program
	reports  map[string]*bounty.Report
}

var _ bounty.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]*bounty.User),
		programs: make(map[string]*bounty.Program),
		reports:  make(map[string]*bounty.Report),
	}
}

func (s *Store) Users() bounty.UserStore       { return (*userStore)(s) }
func (s *Store) Programs() bounty.ProgramStore { return (*programStore)(s) }
func (s *Store) Reports() bounty.ReportStore   { return (*reportStore)(s) }

// User store ---------------------------------------------------------------

type userStore Store

func (s *userStore) Create(ctx context.Context, u *bounty.User) error {
	email := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return bounty.ErrConflict
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*bounty.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, bounty.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*bounty.User, error) {
	email = strings.ToLower(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, bounty.ErrNotFound
}

// Program store ------------------------------------------------------------

type programStore Store

func (s *programStore) Create(ctx context.Context, p *bounty.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.programs[p.ID] = &cp
	return nil
}

func (s *programStore) Find(ctx context.Context, id string) (*bounty.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[id]
	if !ok {
		return nil, bounty.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *programStore) List(ctx context.Context) ([]*bounty.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*bounty.Program, 0, len(s.programs))
	for _, p := range s.programs {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *programStore) Update(ctx context.Context, id string, upd bounty.ProgramUpdate) (*bounty.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok {
		return nil, bounty.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Scope != nil {
		p.Scope = *upd.Scope
	}
	if upd.RewardMin != nil {
		p.RewardMin = *upd.RewardMin
	}
	if upd.RewardMax != nil {
		p.RewardMax = *upd.RewardMax
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (s *programStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.programs[id]; !ok {
		return bounty.ErrNotFound
	}
	delete(s.programs, id)
	// Cascade, matching the FK behavior of the Postgres schema.
	for rid, r := range s.reports {
		if r.ProgramID == id {
			delete(s.reports, rid)
		}
	}
	return nil
}

// Report store -------------------------------------------------------------

type reportStore Store

func (s *reportStore) Create(ctx context.Context, r *bounty.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reports[r.ID] = &cp
	return nil
}

func (s *reportStore) Find(ctx context.Context, id string) (*bounty.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, bounty.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *reportStore) ListByProgram(ctx context.Context, programID string) ([]*bounty.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*bounty.Report, 0)
	for _, r := range s.reports {
		if r.ProgramID == programID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *reportStore) ListByProgramAndResearcher(ctx context.Context, programID, researcherID string) ([]*bounty.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*bounty.Report, 0)
	for _, r := range s.reports {
		if r.ProgramID == programID && r.ResearcherID == researcherID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *reportStore) UpdateStatus(ctx context.Context, id string, upd bounty.ReportStatusUpdate) (*bounty.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, bounty.ErrNotFound
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.Severity != nil {
		r.Severity = *upd.Severity
	}
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}
