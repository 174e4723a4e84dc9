// Package identity verifies who is calling. It owns the users table,
// password hashing, and the opaque API tokens the HTTP layer passes in.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkuzmin-dev/storefront/internal/apperr"
	"github.com/mkuzmin-dev/storefront/internal/db"
)

// Verifier resolves a bearer token to an authenticated requester.
type Verifier interface {
	Verify(ctx context.Context, token string) (Requester, error)
}

type Service struct {
	db db.Querier
}

func NewService(database db.Querier) *Service {
	return &Service{db: database}
}

func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	if password == "" {
		return nil, apperr.New(apperr.KindValidation, "password must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: failed to hash password: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("identity: failed to generate user ID: %w", err)
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`

	user := &User{
		ID:           id,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         RoleUser,
		PasswordHash: string(hash),
	}
	err = s.db.QueryRow(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.Role, user.PasswordHash).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		appErr := apperr.FromPostgres(err, "user not found")
		if appErr.Kind == apperr.KindConflict {
			return nil, apperr.New(apperr.KindConflict, "email already registered")
		}
		return nil, fmt.Errorf("identity: failed to insert user: %w", appErr)
	}

	log.Info().Stringer("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login checks credentials and issues a fresh opaque token. Only the
// token's SHA-256 digest is stored.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	query := `SELECT id, password_hash FROM users WHERE email = $1`

	var userID uuid.UUID
	var passwordHash string
	err := s.db.QueryRow(ctx, query, email).Scan(&userID, &passwordHash)
	if err != nil {
		appErr := apperr.FromPostgres(err, "user not found")
		if appErr.Kind == apperr.KindNotFound {
			return "", apperr.New(apperr.KindUnauthenticated, "invalid email or password")
		}
		return "", fmt.Errorf("identity: failed to select user by email: %w", appErr)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return "", apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("identity: failed to generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	_, err = s.db.Exec(ctx, `UPDATE users SET api_token_hash = $2, updated_at = now() WHERE id = $1`, userID, hashToken(token))
	if err != nil {
		return "", fmt.Errorf("identity: failed to store token: %w", apperr.FromPostgres(err, "user not found"))
	}

	log.Info().Stringer("user_id", userID).Msg("User logged in")
	return token, nil
}

func (s *Service) Verify(ctx context.Context, token string) (Requester, error) {
	if token == "" {
		return Requester{}, apperr.New(apperr.KindUnauthenticated, "missing credentials")
	}

	query := `SELECT id, role FROM users WHERE api_token_hash = $1`

	var req Requester
	err := s.db.QueryRow(ctx, query, hashToken(token)).Scan(&req.UserID, &req.Role)
	if err != nil {
		appErr := apperr.FromPostgres(err, "user not found")
		if appErr.Kind == apperr.KindNotFound {
			return Requester{}, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
		}
		return Requester{}, fmt.Errorf("identity: failed to verify token: %w", appErr)
	}

	return req, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
