package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the user's lifecycle status, derived from the persisted
// is_locked and deleted flags.
type UserStatus = string

const (
	// UserStatusActive may log in and, with delegation, administrate
	UserStatusActive UserStatus = "active"
	// UserStatusLocked keeps the row but revokes sessions on next resolution
	UserStatusLocked UserStatus = "locked"
	// UserStatusDeleted is terminal; the row is retained for audit only
	UserStatusDeleted UserStatus = "deleted"
)

// User is the user model. The is_admin column is materialized from the
// delegation graph and recomputed transactionally on every graph or user
// mutation; it is never written directly by callers.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	PasswordSalt  string     `bun:"password_salt" json:"-"`
	IsAdmin       bool       `bun:"is_admin,notnull,default:false" json:"is_admin,omitempty"`
	IsLocked      bool       `bun:"is_locked,notnull,default:false" json:"is_locked,omitempty"`
	Deleted       bool       `bun:"deleted,notnull,default:false" json:"deleted,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Status maps the persisted flags to a lifecycle status. Deleted wins over
// locked so a locked-then-deleted row reads as deleted.
func (u *User) Status() UserStatus {
	switch {
	case u == nil:
		return ""
	case u.Deleted:
		return UserStatusDeleted
	case u.IsLocked:
		return UserStatusLocked
	default:
		return UserStatusActive
	}
}

// DelegationEdge is a directed Owner -> Admin delegation. Edges are unique
// per (owner, admin) pair; self edges are rejected at the repository.
// TrustAdmins marks the admin's own delegations as propagating one more
// level during recompute.
type DelegationEdge struct {
	bun.BaseModel `bun:"table:delegation_edges,alias:edge"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_user_id,notnull,unique:uq_edge_owner_admin,type:uuid" json:"owner_user_id,omitempty"`
	AdminID       uuid.UUID  `bun:"admin_user_id,notnull,unique:uq_edge_owner_admin,type:uuid" json:"admin_user_id,omitempty"`
	TrustAdmins   bool       `bun:"trust_admins,notnull,default:false" json:"trust_admins,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
