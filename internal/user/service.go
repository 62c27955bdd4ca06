package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/freshcart/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is the most bytes bcrypt will hash.
	MaxPasswordLength = 72
)

type TokenIssuer interface {
	Issue(userID uuid.UUID, role auth.Role) (string, time.Time, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type Options struct {
	BcryptCost       int
	AllowAdminSignup bool
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	opts   Options
	// dummyHash is compared against on unknown emails so both login failures cost the same.
	dummyHash []byte
}

func NewService(repo Repository, tokens TokenIssuer, opts Options) Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("freshcart-dummy-password"), opts.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to prepare dummy password hash")
	}

	return &service{
		repo:      repo,
		tokens:    tokens,
		opts:      opts,
		dummyHash: dummyHash,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)

	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(input.Email); err != nil || addr.Address != input.Email {
		return nil, fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	if len(input.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(input.Password) > MaxPasswordLength {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordLength)
	}

	if input.Role == "" {
		input.Role = auth.RoleCustomer
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if input.Role == auth.RoleAdmin && !s.opts.AllowAdminSignup {
		log.Warn().Str("email", input.Email).Msg("service: admin self-registration rejected")
		return nil, ErrAdminSignupDisabled
	}

	hashPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.opts.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate password hash")
		return nil, fmt.Errorf("internal error hashing password: %w", err)
	}

	user := &User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashPasswordBytes),
		Role:         input.Role,
	}

	createdID, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	user.ID = createdID

	log.Info().Stringer("user_id", user.ID).Stringer("role", user.Role).Msg("service: user registered")

	return s.authenticate(user)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			log.Warn().Msg("service: login failed, unknown email")
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Msg("service: failed to get user by email in repository")
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Stringer("user_id", user.ID).Msg("service: login failed, password mismatch")
		return nil, ErrInvalidCredentials
	}

	return s.authenticate(user)
}

func (s *service) authenticate(user *User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", user.ID).Msg("service: failed to issue token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{
		User:      user.Public(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("failed to get user by id '%s': %w", id, err)
	}

	return user, nil
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}
