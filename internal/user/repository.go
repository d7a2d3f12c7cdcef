package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	id, first_name, last_name, username, email, password_hash,
	profile_image_url, last_login_at, last_login_display_at, joined_at,
	role, active, locked`

func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *Repository) findBy(ctx context.Context, column, value string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE `+column+` = $1
	`, value)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user by %s: %w", column, err)
	}

	return u, nil
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY joined_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *Repository) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, first_name, last_name, username, email, password_hash,
			profile_image_url, last_login_at, last_login_display_at, joined_at,
			role, active, locked
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.ProfileImageURL, u.LastLoginAt, u.LastLoginDisplayAt, u.JoinedAt,
		string(u.Role), u.Active, u.Locked)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repository) Update(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = $2, last_name = $3, username = $4, email = $5,
			password_hash = $6, profile_image_url = $7, last_login_at = $8,
			last_login_display_at = $9, role = $10, active = $11, locked = $12
		WHERE id = $1
	`, u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash,
		u.ProfileImageURL, u.LastLoginAt, u.LastLoginDisplayAt,
		string(u.Role), u.Active, u.Locked)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	var lastLogin, lastLoginDisplay sql.NullTime

	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.ProfileImageURL, &lastLogin, &lastLoginDisplay,
		&u.JoinedAt, &role, &u.Active, &u.Locked)
	if err != nil {
		return User{}, err
	}

	u.Role = Role(role)
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		u.LastLoginAt = &value
	}
	if lastLoginDisplay.Valid {
		value := lastLoginDisplay.Time.UTC()
		u.LastLoginDisplayAt = &value
	}

	return u, nil
}
