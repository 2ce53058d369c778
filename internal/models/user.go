package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole enumerates account roles.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAdmin      UserRole = "admin"
	RoleSuperadmin UserRole = "superadmin"
)

// User is an authenticated account member who creates submissions.
type User struct {
	ID             string     `db:"id" json:"id"`
	AccountID      string     `db:"account_id" json:"account_id"`
	Email          string     `db:"email" json:"email"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Role           UserRole   `db:"role" json:"role"`
	PasswordDigest string     `db:"password_digest" json:"-"`
	LoginToken     *string    `db:"login_token" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
	ArchivedAt     *time.Time `db:"archived_at" json:"archived_at,omitempty"`
}

// JWTClaims is the token payload attached to authenticated requests.
type JWTClaims struct {
	UserID    string   `json:"uid"`
	AccountID string   `json:"aid"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}
