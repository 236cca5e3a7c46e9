package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/GIRISHRV/moviereco/internal/model"
	"github.com/GIRISHRV/moviereco/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

const userCols = "id,username,email,password_hash,avatar_url,is_active,created_at,updated_at"

// Create inserts a user and returns its ID. Duplicate username or
// email surfaces as the matching sentinel.
func (r *UserRepo) Create(ctx context.Context, username, email, password string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?,?,?)",
		username, email, hash)
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(err.Error(), "uq_users_username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpdateProfile applies the non-nil fields to the user row. The
// uniqueness checks and the update run inside one transaction so a
// conflicting concurrent signup cannot slip between them.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, email, avatarURL *string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if username != nil {
		name := strings.TrimSpace(*username)
		var taken int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE username=? AND id<>? LIMIT 1", name, id).Scan(&taken)
		if err == nil {
			return ErrUsernameExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET username=? WHERE id=?", name, id); err != nil {
			if isDuplicate(err) {
				return ErrUsernameExists
			}
			return err
		}
	}
	if email != nil {
		addr := strings.ToLower(strings.TrimSpace(*email))
		var taken int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM users WHERE email=? AND id<>? LIMIT 1", addr, id).Scan(&taken)
		if err == nil {
			return ErrEmailExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET email=? WHERE id=?", addr, id); err != nil {
			if isDuplicate(err) {
				return ErrEmailExists
			}
			return err
		}
	}
	if avatarURL != nil {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET avatar_url=? WHERE id=?", *avatarURL, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetAvatarURL overwrites the stored avatar URL.
func (r *UserRepo) SetAvatarURL(ctx context.Context, id uint64, avatarURL string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET avatar_url=? WHERE id=?", avatarURL, id)
	return err
}
