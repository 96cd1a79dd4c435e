package accesspolicy

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

// CanCreateChatGroup reports whether role may start a chat group.
func CanCreateChatGroup(role string) bool {
	return role == models.RoleAdmin || role == models.RolePresident
}

// CanAdministerChatGroup reports whether id may rename, re-member or delete
// g. Presidents need to be group admins like anyone else.
func CanAdministerChatGroup(id auth.Identity, g models.ChatGroup) bool {
	return id.IsAdmin() || g.IsAdmin(id.ID)
}
