// Package accesspolicy decides what an identity may do with a kind of
// resource.
//
// Rules are evaluated in order and the first one that matches decides:
//   - admins may do anything
//   - nationals may never change roles or club chiefs, and may read every
//     moderation-visible kind
//   - presidents act on club-scoped kinds only inside their effective club
//   - everyone else reads public or self-authored resources and edits their
//     own non-administrative resources
//
// A denial is reported as Forbidden and never says whether the target exists.
package accesspolicy

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names a class of protected resource.
type Kind string

const (
	KindContent       Kind = "content"
	KindActions       Kind = "actions"
	KindTestimonials  Kind = "testimonials"
	KindPolls         Kind = "polls"
	KindClubProfile   Kind = "club_profile"
	KindUsers         Kind = "users"
	KindMessagesAdmin Kind = "messages_admin"
	KindRoles         Kind = "roles"
	KindClubChief     Kind = "club_chief"
)

// Action is what the caller wants to do.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) mutates() bool { return a != ActionRead }

var (
	moderationVisible = kindSet(KindContent, KindPolls, KindUsers, KindTestimonials, KindMessagesAdmin)
	clubScoped        = kindSet(KindContent, KindActions, KindTestimonials, KindPolls, KindClubProfile)
	nationalLocked    = kindSet(KindRoles, KindClubChief)
	selfEditable      = kindSet(KindContent, KindActions, KindTestimonials)
	administrative    = kindSet(KindUsers, KindMessagesAdmin, KindRoles, KindClubChief)
)

func kindSet(kinds ...Kind) map[Kind]bool {
	m := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// Ref describes the targeted resource. A nil *Ref means a list or create
// request with no specific target.
type Ref struct {
	ClubID   *primitive.ObjectID
	AuthorID *primitive.ObjectID
	// Public is true for resources visible to everyone (approved or public).
	Public bool
}

// Scope tells the caller how to restrict queries after an Allow.
type Scope struct {
	// All means no restriction.
	All bool
	// ClubID restricts results to one club.
	ClubID *primitive.ObjectID
	// PublicOrAuthor restricts results to public resources plus those
	// authored by AuthorID.
	PublicOrAuthor bool
	AuthorID       *primitive.ObjectID
}

// Decision is the outcome of Decide. Reason is for logs only.
type Decision struct {
	Allowed bool
	Scope   Scope
	Reason  string
}

// ClubResolver finds the club a user effectively belongs to: the assigned
// club if set, otherwise the club the user is chief of.
type ClubResolver interface {
	EffectiveClub(ctx context.Context, userID primitive.ObjectID, assigned *primitive.ObjectID) (*primitive.ObjectID, error)
}

type request struct {
	id     auth.Identity
	kind   Kind
	action Action
	ref    *Ref
}

type rule struct {
	name   string
	match  func(request) bool
	decide func(ctx context.Context, p *Policy, req request) (Decision, error)
}

// Policy evaluates the rule table.
type Policy struct {
	clubs ClubResolver
	rules []rule
}

func New(clubs ClubResolver) *Policy {
	return &Policy{clubs: clubs, rules: defaultRules}
}

var defaultRules = []rule{
	{
		name:   "admin",
		match:  func(r request) bool { return r.id.Role == models.RoleAdmin },
		decide: allowAll("admin"),
	},
	{
		name: "national-locked",
		match: func(r request) bool {
			return r.id.Role == models.RoleNational && nationalLocked[r.kind] && r.action.mutates()
		},
		decide: deny("national may not change roles or club chiefs"),
	},
	{
		name: "national-read",
		match: func(r request) bool {
			return r.id.Role == models.RoleNational && moderationVisible[r.kind] && !r.action.mutates()
		},
		decide: allowAll("national moderation read"),
	},
	{
		name: "president-club",
		match: func(r request) bool {
			return r.id.Role == models.RolePresident && clubScoped[r.kind]
		},
		decide: decidePresident,
	},
	{
		name:   "default",
		match:  func(request) bool { return true },
		decide: decideDefault,
	},
}

// Decide returns the first matching rule's decision. An error is returned
// only when resolving the caller's club fails.
func (p *Policy) Decide(ctx context.Context, id auth.Identity, kind Kind, action Action, ref *Ref) (Decision, error) {
	req := request{id: id, kind: kind, action: action, ref: ref}
	for _, r := range p.rules {
		if r.match(req) {
			return r.decide(ctx, p, req)
		}
	}
	return Decision{Reason: "no rule matched"}, nil
}

func allowAll(reason string) func(context.Context, *Policy, request) (Decision, error) {
	return func(context.Context, *Policy, request) (Decision, error) {
		return Decision{Allowed: true, Scope: Scope{All: true}, Reason: reason}, nil
	}
}

func deny(reason string) func(context.Context, *Policy, request) (Decision, error) {
	return func(context.Context, *Policy, request) (Decision, error) {
		return Decision{Reason: reason}, nil
	}
}

func decidePresident(ctx context.Context, p *Policy, req request) (Decision, error) {
	club, err := p.clubs.EffectiveClub(ctx, req.id.ID, req.id.ClubID)
	if err != nil {
		return Decision{}, err
	}
	if club == nil {
		return Decision{Reason: "president has no club"}, nil
	}
	if req.ref == nil || req.ref.ClubID == nil {
		return Decision{Allowed: true, Scope: Scope{ClubID: club}, Reason: "president own club"}, nil
	}
	if *req.ref.ClubID != *club {
		return Decision{Reason: "resource belongs to another club"}, nil
	}
	return Decision{Allowed: true, Scope: Scope{ClubID: club}, Reason: "president own club"}, nil
}

func decideDefault(_ context.Context, _ *Policy, req request) (Decision, error) {
	if administrative[req.kind] {
		return Decision{Reason: "administrative kind"}, nil
	}

	var self *primitive.ObjectID
	if !req.id.ID.IsZero() {
		id := req.id.ID
		self = &id
	}
	authored := self != nil && req.ref != nil && req.ref.AuthorID != nil && *req.ref.AuthorID == *self

	if !req.action.mutates() {
		if req.ref == nil {
			return Decision{Allowed: true, Scope: Scope{PublicOrAuthor: true, AuthorID: self}, Reason: "public list"}, nil
		}
		if req.ref.Public || authored {
			return Decision{Allowed: true, Scope: Scope{PublicOrAuthor: true, AuthorID: self}, Reason: "public or own"}, nil
		}
		return Decision{Reason: "not public"}, nil
	}

	if !selfEditable[req.kind] || self == nil {
		return Decision{Reason: "mutation not permitted"}, nil
	}
	if req.action == ActionCreate && req.ref == nil {
		return Decision{Allowed: true, Scope: Scope{AuthorID: self}, Reason: "create own"}, nil
	}
	if authored {
		return Decision{Allowed: true, Scope: Scope{AuthorID: self}, Reason: "own resource"}, nil
	}
	return Decision{Reason: "not the author"}, nil
}
