// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs after the schema is in place and before the handler is
// built. It makes sure the configured bootstrap admin can sign in.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return ensureAdmin(ctx, deps, appCfg.AdminEmail, logger)
}

// ensureAdmin promotes the account with email to an approved admin, or
// creates it without a password. A new admin sets a password through the
// reset flow.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
			Status:   models.StatusApproved,
		})
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("created bootstrap admin", zap.String("user_id", created.ID.Hex()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}

	if u.Role == models.RoleAdmin && u.Status == models.StatusApproved {
		return nil
	}
	role, status := models.RoleAdmin, models.StatusApproved
	if _, err := users.UpdateByAdmin(ctx, u.ID, userstore.AdminUpdate{Role: &role, Status: &status}, ""); err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	logger.Info("promoted bootstrap admin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("previous_role", u.Role))
	return nil
}
