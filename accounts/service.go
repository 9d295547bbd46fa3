package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/consulting-site-backend/errs"
)

type Service struct {
	store  Store
	tokens *Tokens
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(store Store, tokens *Tokens) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: log.With().Str("component", "accountService").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	rec, err := s.store.FindUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	return rec.User, nil
}

func (s *Service) Create(ctx context.Context, d UserDraft) (User, error) {
	if err := d.Validate(true).OrNil(); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(d.Password)
	if err != nil {
		return User{}, errs.NewInternalErrorWithCause("create user", err)
	}

	now := s.now().UTC()
	rec := UserRecord{
		User: User{
			ID:        s.newID(),
			Name:      strings.TrimSpace(d.Name),
			Email:     normalizeEmail(d.Email),
			Role:      d.role(),
			Title:     trimmed(d.Title),
			AvatarURL: trimmed(d.AvatarURL),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, rec); err != nil {
		return User{}, err
	}
	s.logger.Info().Str("userId", rec.ID).Str("role", string(rec.Role)).Msg("user created")
	return rec.User, nil
}

func (s *Service) Update(ctx context.Context, id string, d UserDraft) (User, error) {
	if err := d.Validate(false).OrNil(); err != nil {
		return User{}, err
	}
	rec, err := s.store.FindUser(ctx, id)
	if err != nil {
		return User{}, err
	}

	rec.Name = strings.TrimSpace(d.Name)
	rec.Email = normalizeEmail(d.Email)
	if strings.TrimSpace(d.Role) != "" {
		rec.Role = d.role()
	}
	rec.Title = trimmed(d.Title)
	rec.AvatarURL = trimmed(d.AvatarURL)
	rec.UpdatedAt = s.now().UTC()
	if d.Password != "" {
		if rec.PasswordHash, err = HashPassword(d.Password); err != nil {
			return User{}, errs.NewInternalErrorWithCause("update user", err)
		}
	}

	if err := s.store.UpdateUser(ctx, *rec); err != nil {
		return User{}, err
	}
	return rec.User, nil
}

// Delete refuses while the user still authors posts.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteUser(ctx, id)
	if errs.IsForeignKeyConstraintError(err) {
		return errs.NewConflictError("user still authors posts; reassign or delete them first")
	}
	return err
}

// Authenticate checks the credentials and issues an access token. Unknown
// email and wrong password fail the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, string, time.Time, error) {
	rec, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if errs.IsNotFound(err) {
		return User{}, "", time.Time{}, errs.NewBadCredentialsError()
	}
	if err != nil {
		return User{}, "", time.Time{}, err
	}
	if CheckPassword(rec.PasswordHash, password) != nil {
		s.logger.Warn().Str("userId", rec.ID).Msg("failed sign-in")
		return User{}, "", time.Time{}, errs.NewBadCredentialsError()
	}

	token, expires, err := s.tokens.Issue(rec.User)
	if err != nil {
		return User{}, "", time.Time{}, errs.NewInternalErrorWithCause("issue token", err)
	}
	return rec.User, token, expires, nil
}

// EnsureAdmin creates an admin account for email unless one already exists,
// so a fresh deployment has someone who can sign in.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errs.IsNotFound(err) {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	if _, err := s.Create(ctx, UserDraft{Name: name, Email: email, Password: password, Role: string(RoleAdmin)}); err != nil {
		return false, err
	}
	return true, nil
}
