package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rakshalabs/raksha/internal/database/dbretry"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles database operations for users, their settings, and
// consent flags.
type UserModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewUser creates a new user model.
func NewUser(db *bun.DB, logger *zap.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger.Named("db_user"),
	}
}

// GetByID retrieves one user.
func (m *UserModel) GetByID(ctx context.Context, userID int64) (*types.User, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.User, error) {
		var user types.User

		err := m.db.NewSelect().
			Model(&user).
			Where("id = ?", userID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, types.ErrUserNotFound
			}

			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		return &user, nil
	})
}

// GetSettings returns the user's settings, falling back to defaults when the
// user has never saved any.
func (m *UserModel) GetSettings(ctx context.Context, userID int64) (*types.UserSettings, error) {
	var settings types.UserSettings

	err := m.db.NewSelect().
		Model(&settings).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.DefaultUserSettings(userID), nil
		}

		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings upserts the user's settings row.
func (m *UserModel) SaveSettings(ctx context.Context, settings *types.UserSettings) error {
	settings.UpdatedAt = time.Now()

	_, err := m.db.NewInsert().
		Model(settings).
		On("CONFLICT (user_id) DO UPDATE").
		Set("language = EXCLUDED.language").
		Set("auto_block_high_risk = EXCLUDED.auto_block_high_risk").
		Set("alert_threshold = EXCLUDED.alert_threshold").
		Set("receive_tips = EXCLUDED.receive_tips").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}

	return nil
}

// UpdateConsent records the user's current consent flags with a version and
// grant timestamp.
func (m *UserModel) UpdateConsent(ctx context.Context, userID int64, trainingData, analytics bool, version string) error {
	now := time.Now()

	res, err := m.db.NewUpdate().
		Model((*types.User)(nil)).
		Set("consent_training_data = ?", trainingData).
		Set("consent_analytics = ?", analytics).
		Set("consent_version = ?", version).
		Set("consent_granted_at = ?", now).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update consent: %w", err)
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return types.ErrUserNotFound
	}

	return nil
}
