package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmktpan/golfcar-maintenance-sub001/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

// CreateUser creates a new user.
func CreateUser(ctx context.Context, q Querier, username, passwordHash, role string) (*model.User, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, q, id)
}

// GetUser returns a user by ID, or nil if it does not exist.
func GetUser(ctx context.Context, q Querier, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns an active user by username, or nil.
func GetUserByUsername(ctx context.Context, q Querier, username string) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`, username,
	))
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// GetUserName returns the username for id, or "" if the user does not exist.
func GetUserName(ctx context.Context, q Querier, id int64) (string, error) {
	var name string
	err := q.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting user name: %w", err)
	}
	return name, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, q Querier) ([]model.User, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
