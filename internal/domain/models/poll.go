// internal/domain/models/poll.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Poll statuses.
const (
	PollOpen   = "open"
	PollClosed = "closed"
)

// PollOption is one answer with its running tally.
type PollOption struct {
	Text  string `bson:"text" json:"text"`
	Votes int    `bson:"votes" json:"votes"`
}

// Poll is a question put to members, optionally scoped to a club.
//
// Voters holds one key per ballot ("user:<id>" or "ip:<addr>"); it is never
// serialized to clients.
type Poll struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClubID    *primitive.ObjectID `bson:"club_id,omitempty" json:"clubId,omitempty"`
	Question  string              `bson:"question" json:"question"`
	Options   []PollOption        `bson:"options" json:"options"`
	Voters    []string            `bson:"voters" json:"-"`
	Status    string              `bson:"status" json:"status"`
	IsPublic  bool                `bson:"is_public" json:"isPublic"`
	CreatedBy primitive.ObjectID  `bson:"created_by" json:"createdBy"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
