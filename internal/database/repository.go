package database

import (
	"github.com/rakshalabs/raksha/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	scan      *models.ScanModel
	user      *models.UserModel
	sender    *models.SenderModel
	blacklist *models.BlacklistModel
	guardian  *models.GuardianModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		scan:      models.NewScan(db, logger),
		user:      models.NewUser(db, logger),
		sender:    models.NewSender(db, logger),
		blacklist: models.NewBlacklist(db, logger),
		guardian:  models.NewGuardian(db, logger),
	}
}

// Scan returns the scan model repository.
func (r *Repository) Scan() *models.ScanModel {
	return r.scan
}

// User returns the user model repository.
func (r *Repository) User() *models.UserModel {
	return r.user
}

// Sender returns the trusted/blocked sender model repository.
func (r *Repository) Sender() *models.SenderModel {
	return r.sender
}

// Blacklist returns the blacklist model repository.
func (r *Repository) Blacklist() *models.BlacklistModel {
	return r.blacklist
}

// Guardian returns the guardian link and alert model repository.
func (r *Repository) Guardian() *models.GuardianModel {
	return r.guardian
}
