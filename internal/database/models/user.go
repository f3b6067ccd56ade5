package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// UserModel handles database operations for users.
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

// GetByID retrieves a user by ID.
func (r *UserModel) GetByID(ctx context.Context, id int64) (*types.User, error) {
	var user types.User
	err := r.db.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Exists reports whether a user exists.
func (r *UserModel) Exists(ctx context.Context, id int64) (bool, error) {
	return existsByID(ctx, r.db, (*types.User)(nil), id)
}
