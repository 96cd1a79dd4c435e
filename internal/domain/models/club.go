// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club is a local chapter of the association.
//
// Slug is unique and derived from Name unless set explicitly.
// ChiefUserID is unique across clubs when present (one club per chief).
type Club struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Slug        string              `bson:"slug" json:"slug"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	ChiefUserID *primitive.ObjectID `bson:"chief_user_id,omitempty" json:"chiefUserId,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
