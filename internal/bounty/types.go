// Package bounty holds the domain model and authorization rules for the bug
// bounty platform: users, programs, vulnerability reports, and the ownership
// checks governing who may act on them.
package bounty

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleResearcher Role = "RESEARCHER"
	RoleCompany    Role = "COMPANY"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleResearcher, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes and validates a client-supplied role string.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, s)
	}
	return role, nil
}

// Severity is the closed set of report severities.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether the severity is a member of the closed set.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Status is the closed set of report workflow states. No transition graph is
// enforced beyond membership: an owner may move a report between any two
// states, any number of times.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusInReview Status = "IN_REVIEW"
	StatusResolved Status = "RESOLVED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether the status is a member of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInReview, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// User is an authenticated actor. The password hash never serializes.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Program is a company's bounty scope definition, owned by exactly one
// COMPANY actor. CompanyID is immutable after creation.
type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Scope       string    `json:"scope"`
	RewardMin   int64     `json:"reward_min"`
	RewardMax   int64     `json:"reward_max"`
	CompanyID   string    `json:"company_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnerID implements Owned.
func (p *Program) OwnerID() string { return p.CompanyID }

// Report is a researcher's vulnerability submission against a program.
// ProgramID and ResearcherID are immutable after creation.
type Report struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Severity     Severity  `json:"severity"`
	Status       Status    `json:"status"`
	ProgramID    string    `json:"program_id"`
	ResearcherID string    `json:"researcher_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubmittedBy reports whether the given actor submitted this report.
func (r *Report) SubmittedBy(userID string) bool {
	return userID != "" && r.ResearcherID == userID
}

// Owned is a resource with a single owning actor.
type Owned interface {
	OwnerID() string
}

// Owns is the shared ownership predicate: a report's owner is resolved through
// its parent program, so report checks pass the program here, not the report.
func Owns(actor *User, res Owned) bool {
	if actor == nil || res == nil {
		return false
	}
	return res.OwnerID() != "" && res.OwnerID() == actor.ID
}
