package models

import "time"

// Role identifies which shared password a session was authenticated with.
type Role string

const (
	RoleWorker  Role = "worker"
	RoleManager Role = "manager"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleManager
}

// SessionState is the per-client authentication state. Both flags live in one
// session so destroying it logs out of both roles.
type SessionState struct {
	ID                   string    `json:"id"`
	WorkerAuthenticated  bool      `json:"worker_authenticated"`
	ManagerAuthenticated bool      `json:"manager_authenticated"`
	CreatedAt            time.Time `json:"created_at"`
	ExpiresAt            time.Time `json:"expires_at"`
}

// Authenticated reports the flag for role.
func (s *SessionState) Authenticated(role Role) bool {
	if s == nil {
		return false
	}
	switch role {
	case RoleWorker:
		return s.WorkerAuthenticated
	case RoleManager:
		return s.ManagerAuthenticated
	default:
		return false
	}
}

// SetAuthenticated sets the flag for role.
func (s *SessionState) SetAuthenticated(role Role, value bool) {
	switch role {
	case RoleWorker:
		s.WorkerAuthenticated = value
	case RoleManager:
		s.ManagerAuthenticated = value
	}
}

// Expired reports whether the session is past its expiry at now.
func (s *SessionState) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}
