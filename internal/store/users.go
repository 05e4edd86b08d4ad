package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"meddrop/m/domain"
)

// CreateUser inserts a new user with an already-hashed password.
func CreateUser(ctx context.Context, db *sqlx.DB, name, email, passwordHash string) (*domain.User, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
		name, strings.ToLower(email), passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, without the password hash.
func GetUser(ctx context.Context, db *sqlx.DB, id int64) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail returns a user by email, including the password hash,
// for credential checks.
func GetUserByEmail(ctx context.Context, db *sqlx.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.GetContext(ctx, &user,
		`SELECT id, name, email, password, created_at FROM users WHERE email = ?`,
		strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
