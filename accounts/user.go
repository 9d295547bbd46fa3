package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rpupo63/consulting-site-backend/errs"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleAuthor Role = "AUTHOR"
)

func ParseRole(s string) (Role, error) {
	switch role := Role(strings.ToUpper(strings.TrimSpace(s))); role {
	case RoleAdmin, RoleEditor, RoleAuthor:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q (allowed: ADMIN, EDITOR, AUTHOR)", s)
}

// User is an account as the API shows it. The password hash never leaves
// UserRecord.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Title     *string   `json:"title,omitempty"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UserRecord struct {
	User
	PasswordHash string
}

// Store persists accounts. Adapters report a taken email as errs.AlreadyExists
// and a user still referenced by posts as a foreign key error.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	FindUser(ctx context.Context, id string) (*UserRecord, error)
	FindUserByEmail(ctx context.Context, email string) (*UserRecord, error)
	CreateUser(ctx context.Context, u UserRecord) error
	UpdateUser(ctx context.Context, u UserRecord) error
	DeleteUser(ctx context.Context, id string) error
}

const (
	MinPasswordLength = 8
	maxNameRunes      = 100
	maxTitleRunes     = 100
)

// UserDraft is the create/update payload. On update an empty Password keeps
// the current one.
type UserDraft struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password,omitempty"`
	Role      string  `json:"role"`
	Title     *string `json:"title,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

func (d UserDraft) Validate(requirePassword bool) *errs.ValidationError {
	verr := &errs.ValidationError{}

	name := strings.TrimSpace(d.Name)
	switch {
	case name == "":
		verr.Add("name", "is required")
	case utf8.RuneCountInString(name) > maxNameRunes:
		verr.Addf("name", "must be at most %d characters", maxNameRunes)
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(d.Email)); err != nil || strings.ContainsAny(d.Email, "<> ") {
		verr.Add("email", "must be a valid email address")
	}

	if requirePassword || d.Password != "" {
		if utf8.RuneCountInString(d.Password) < MinPasswordLength {
			verr.Addf("password", "must be at least %d characters", MinPasswordLength)
		}
	}

	if strings.TrimSpace(d.Role) != "" {
		if _, err := ParseRole(d.Role); err != nil {
			verr.Add("role", err.Error())
		}
	}

	if title := trimmed(d.Title); title != nil && utf8.RuneCountInString(*title) > maxTitleRunes {
		verr.Addf("title", "must be at most %d characters", maxTitleRunes)
	}
	return verr
}

func (d UserDraft) role() Role {
	role, err := ParseRole(d.Role)
	if err != nil {
		return RoleAuthor
	}
	return role
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
