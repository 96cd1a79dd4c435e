// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleAdmin     = "admin"
	RolePresident = "president"
	RoleNational  = "national"
	RoleMember    = "member"
)

// Account statuses. Only approved accounts may sign in, except admins.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User is an account on the platform.
//
// NOTE:
//   - SessionID holds the id of the single active session. Logging in
//     elsewhere overwrites it, which invalidates every older token.
//   - ClubID is the assigned club. A president may instead be linked to a
//     club only through Club.ChiefUserID.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"fullName"`
	Email        string              `bson:"email" json:"email"`
	EmailCI      string              `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"`
	Status       string              `bson:"status" json:"status"`
	ClubID       *primitive.ObjectID `bson:"club_id,omitempty" json:"clubId,omitempty"`
	SessionID    string              `bson:"session_id,omitempty" json:"-"`
	ResetNonce   string              `bson:"reset_nonce,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePresident, RoleNational, RoleMember:
		return true
	}
	return false
}

// IsValidStatus reports whether status is one of the known account statuses.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
