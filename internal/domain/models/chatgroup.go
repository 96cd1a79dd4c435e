// internal/domain/models/chatgroup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatGroup is a named conversation between a set of members.
//
// Members and Admins are sets (no duplicates) and Admins is a subset of
// Members. The creator starts out in both.
type ChatGroup struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Admins      []primitive.ObjectID `bson:"admins" json:"admins"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether userID belongs to the group.
func (g ChatGroup) HasMember(userID primitive.ObjectID) bool {
	return containsID(g.Members, userID)
}

// IsAdmin reports whether userID administers the group.
func (g ChatGroup) IsAdmin(userID primitive.ObjectID) bool {
	return containsID(g.Admins, userID)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
