package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/weles/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates the user repository.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Authenticate(ctx context.Context, name, password string) (bool, error) {
	var stored string
	err := r.db.QueryRowContext(
		ctx,
		"SELECT password_hash FROM users WHERE user_name = $1",
		name,
	).Scan(&stored)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}

	ok, rehash, err := verifyPassword(stored, password)
	if err != nil || !ok {
		return false, err
	}

	if rehash {
		r.upgrade(ctx, name, password)
	}
	return true, nil
}

func (r *repo) upgrade(ctx context.Context, name, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		r.logger.Warn("password rehash failed", "user", name, "error", err)
		return
	}

	if _, err := r.db.ExecContext(
		ctx,
		"UPDATE users SET password_hash = $1 WHERE user_name = $2",
		hash, name,
	); err != nil {
		r.logger.Warn("password rehash not stored", "user", name, "error", err)
		return
	}
	r.logger.Info("legacy password hash upgraded", "user", name)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) error {
	if cmd.Name == "" || cmd.Password == "" {
		return ErrInvalidUser
	}

	hash, err := HashPassword(cmd.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"INSERT INTO users(user_name, password_hash, mail) VALUES ($1, $2, $3)",
			cmd.Name, hash, cmd.Mail,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user created", "user", cmd.Name)
	return nil
}

func (r *repo) Find(ctx context.Context, name string) (*User, error) {
	u, err := repository.QueryOne(
		ctx, r.db,
		"SELECT user_name, mail FROM users WHERE user_name = $1",
		[]any{name},
		func(s repository.Scanner) (User, error) {
			var u User
			err := s.Scan(&u.Name, &u.Mail)
			return u, err
		},
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}
