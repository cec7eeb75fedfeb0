// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login and token refresh.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/server/auth"
	"github.com/dmitrijs2005/trackmeta/internal/server/config"
	"github.com/dmitrijs2005/trackmeta/internal/server/models"
	"github.com/dmitrijs2005/trackmeta/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// PasswordPolicy is the user-facing description of ValidatePassword.
const PasswordPolicy = "Password must be at least 8 characters long, contain at least one uppercase letter, one lowercase letter, one number, and one special character."

const passwordSymbols = "!@#$%^&*"

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// RefreshResult carries a reissued token and its absolute expiry.
type RefreshResult struct {
	Token     string
	ExpiresAt time.Time
}

// UserService provides authentication-related operations:
// - Signup: validate and create accounts
// - Login: verify credentials and mint an access token
// - RefreshToken: verify a token and mint a longer-lived replacement
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	cost                         int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		cost:                         bcryptCost,
	}
}

// ValidatePassword reports whether p is at least 8 characters drawn from
// letters, digits and !@#$%^&*, with at least one of each class.
func ValidatePassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

// Signup creates an account. The username is lowercased before the
// uniqueness checks and storage; the email is kept as given.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, common.ErrMissingFields
	}
	if !ValidatePassword(password) {
		return nil, common.ErrWeakPassword
	}

	normalized := strings.ToLower(username)
	repo := s.repomanager.Users(s.db)

	taken, err := repo.ExistsByUsername(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if taken {
		return nil, common.ErrUsernameTaken
	}

	taken, err = repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if taken {
		return nil, common.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:     normalized,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown users get
// common.ErrUserNotFound, a wrong password common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, common.ErrMissingLogin
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetUserByUsername(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	token, expiresAt, err := auth.GenerateToken(user.ID, user.Username, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &LoginResult{Token: token, ExpiresIn: s.accessTokenValidityDuration, ExpiresAt: expiresAt}, nil
}

// RefreshToken verifies token and reissues it with the refresh validity,
// keeping the id and username claims.
func (s *UserService) RefreshToken(ctx context.Context, token string) (*RefreshResult, error) {
	if token == "" {
		return nil, common.ErrTokenRequired
	}

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	newToken, expiresAt, err := auth.GenerateToken(claims.UserID, claims.Username, s.jwtSecret, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &RefreshResult{Token: newToken, ExpiresAt: expiresAt}, nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("trackmeta-dummy-password"), s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
