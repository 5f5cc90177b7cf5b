package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is an account row created on first Google sign-in.
type User struct {
	ID          int64     `json:"id"`
	GoogleID    string    `json:"-"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Picture     string    `json:"pictureUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore persists user accounts keyed by Google subject id.
type UserStore struct {
	pool rowQuerier
}

// NewUserStore creates a store backed by pgx pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	if pool == nil {
		panic("auth: pgx pool required")
	}
	return &UserStore{pool: pool}
}

func newUserStoreWithQuerier(q rowQuerier) *UserStore {
	if q == nil {
		panic("auth: querier required")
	}
	return &UserStore{pool: q}
}

// UpsertGoogleUser creates the account on first sign-in and refreshes the
// profile fields on every subsequent one.
func (s *UserStore) UpsertGoogleUser(ctx context.Context, gu GoogleUser) (*User, error) {
	query := `
		INSERT INTO users (google_id, email, name, picture_url, last_login_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (google_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    picture_url = EXCLUDED.picture_url,
		    last_login_at = now()
		RETURNING id, created_at, last_login_at
	`
	user := &User{
		GoogleID: gu.GoogleID,
		Email:    gu.Email,
		Name:     gu.Name,
		Picture:  gu.Picture,
	}
	if err := s.pool.QueryRow(ctx, query, gu.GoogleID, gu.Email, gu.Name, gu.Picture).
		Scan(&user.ID, &user.CreatedAt, &user.LastLoginAt); err != nil {
		return nil, fmt.Errorf("auth: upsert user: %w", err)
	}
	return user, nil
}
