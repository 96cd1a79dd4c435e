package chatsvc

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/dalemusser/clubhub/internal/app/policy/accesspolicy"
	notifysvc "github.com/dalemusser/clubhub/internal/app/services/notify"
	groupstore "github.com/dalemusser/clubhub/internal/app/store/groups"
	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/txn"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewGroup is the input to CreateGroup.
type NewGroup struct {
	Name        string
	Description string
	Members     []primitive.ObjectID
}

// GroupPatch is a partial group update. Members, when set, replaces the
// whole member list.
type GroupPatch struct {
	Name        *string
	Description *string
	Members     *[]primitive.ObjectID
}

func cleanGroupName(raw string) (string, error) {
	name := htmlsanitize.PlainText(raw)
	if name == "" {
		return "", apperr.Validation("Group name is required.")
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLen {
		return "", apperr.Validation("Group name is too long.")
	}
	return name, nil
}

// checkMembers rejects ids that do not belong to a user.
func (s *Service) checkMembers(ctx context.Context, ids []primitive.ObjectID) error {
	found, err := s.users.ExistingIDs(ctx, ids)
	if err != nil {
		return apperr.Server("Failed to look up members.", err)
	}
	if len(found) != len(ids) {
		return apperr.Validation("One or more members do not exist.")
	}
	return nil
}

// CreateGroup creates a group owned by actor. The actor is always a member
// and the only initial admin. Other members receive a group_added
// notification.
func (s *Service) CreateGroup(ctx context.Context, actor auth.Identity, in NewGroup) (models.ChatGroup, error) {
	if !accesspolicy.CanCreateChatGroup(actor.Role) {
		return models.ChatGroup{}, apperr.Forbidden("Only admins and presidents can create groups.")
	}
	name, err := cleanGroupName(in.Name)
	if err != nil {
		return models.ChatGroup{}, err
	}

	members := dedupe(append([]primitive.ObjectID{actor.ID}, in.Members...))
	if err := s.checkMembers(ctx, members); err != nil {
		return models.ChatGroup{}, err
	}

	g, err := s.groups.Create(ctx, models.ChatGroup{
		Name:        name,
		Description: htmlsanitize.PlainText(in.Description),
		Members:     members,
		Admins:      []primitive.ObjectID{actor.ID},
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return models.ChatGroup{}, apperr.Server("Failed to create group.", err)
	}

	s.notifyAdded(ctx, actor, g, members)
	return g, nil
}

func (s *Service) notifyAdded(ctx context.Context, actor auth.Identity, g models.ChatGroup, ids []primitive.ObjectID) {
	var recipients []primitive.ObjectID
	for _, id := range ids {
		if id != actor.ID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}
	from := actor.ID
	s.notify.NotifyMany(ctx, recipients, notifysvc.Notice{
		Type:    models.NotifGroupAdded,
		Title:   "Added to " + g.Name,
		Message: actor.Name + " added you to the group " + g.Name + ".",
		Link:    "/chat?group=" + g.ID.Hex(),
		Sender:  &from,
	})
}

// adminGroup loads groupID and checks that actor may administer it.
func (s *Service) adminGroup(ctx context.Context, actor auth.Identity, groupID primitive.ObjectID) (models.ChatGroup, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if isNoDoc(err) {
		return models.ChatGroup{}, apperr.NotFound("Group not found.")
	}
	if err != nil {
		return models.ChatGroup{}, apperr.Server("Failed to load group.", err)
	}
	if !accesspolicy.CanAdministerChatGroup(actor, g) {
		return models.ChatGroup{}, apperr.Forbidden("Only group admins can change this group.")
	}
	return g, nil
}

// UpdateGroup applies p to the group. A member replacement drops admins who
// are no longer members and is rejected if no admin would remain. Newly
// added members receive a group_added notification.
func (s *Service) UpdateGroup(ctx context.Context, actor auth.Identity, groupID primitive.ObjectID, p GroupPatch) (models.ChatGroup, error) {
	prev, err := s.adminGroup(ctx, actor, groupID)
	if err != nil {
		return models.ChatGroup{}, err
	}

	next := prev
	if p.Name != nil {
		if next.Name, err = cleanGroupName(*p.Name); err != nil {
			return models.ChatGroup{}, err
		}
	}
	if p.Description != nil {
		next.Description = htmlsanitize.PlainText(*p.Description)
	}

	var added []primitive.ObjectID
	if p.Members != nil {
		members := dedupe(*p.Members)
		if err := s.checkMembers(ctx, members); err != nil {
			return models.ChatGroup{}, err
		}
		admins := make([]primitive.ObjectID, 0, len(prev.Admins))
		for _, a := range prev.Admins {
			if contains(members, a) {
				admins = append(admins, a)
			}
		}
		if len(admins) == 0 {
			return models.ChatGroup{}, apperr.Validation("A group must keep at least one admin.")
		}
		for _, m := range members {
			if !prev.HasMember(m) {
				added = append(added, m)
			}
		}
		next.Members = members
		next.Admins = admins
	}

	g, err := s.groups.Replace(ctx, prev, next)
	if errors.Is(err, groupstore.ErrStale) {
		return models.ChatGroup{}, apperr.InvalidState("The group was changed by someone else. Reload and try again.")
	}
	if err != nil {
		return models.ChatGroup{}, apperr.Server("Failed to update group.", err)
	}

	s.notifyAdded(ctx, actor, g, added)
	return g, nil
}

// SetGroupAdmin grants or revokes target's admin role in the group.
func (s *Service) SetGroupAdmin(ctx context.Context, actor auth.Identity, groupID, target primitive.ObjectID, admin bool) (models.ChatGroup, error) {
	if _, err := s.adminGroup(ctx, actor, groupID); err != nil {
		return models.ChatGroup{}, err
	}

	var guard *primitive.ObjectID
	if !actor.IsAdmin() {
		id := actor.ID
		guard = &id
	}
	g, err := s.groups.SetAdmin(ctx, groupID, target, admin, guard)
	if err == nil {
		return g, nil
	}
	if !isNoDoc(err) {
		return models.ChatGroup{}, apperr.Server("Failed to update group admins.", err)
	}

	// The conditional update missed; re-read to report why.
	cur, err := s.adminGroup(ctx, actor, groupID)
	if err != nil {
		return models.ChatGroup{}, err
	}
	switch {
	case admin && !cur.HasMember(target):
		return models.ChatGroup{}, apperr.Validation("Only members can be group admins.")
	case !admin && len(cur.Admins) <= 1:
		return models.ChatGroup{}, apperr.Validation("A group must keep at least one admin.")
	default:
		return models.ChatGroup{}, apperr.InvalidState("The group was changed by someone else. Reload and try again.")
	}
}

// DeleteGroup removes the group and every message posted to it.
func (s *Service) DeleteGroup(ctx context.Context, actor auth.Identity, groupID primitive.ObjectID) error {
	if _, err := s.adminGroup(ctx, actor, groupID); err != nil {
		return err
	}
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.gmsgs.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		_, err := s.groups.Delete(ctx, groupID)
		return err
	})
	if err != nil {
		return apperr.Server("Failed to delete group.", err)
	}
	return nil
}
