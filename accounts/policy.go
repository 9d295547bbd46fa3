package accounts

import (
	"github.com/rpupo63/consulting-site-backend/errs"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleAdmin || p.Role == RoleEditor
}

// CanListStatus allows anyone to read published posts. Drafts and archived
// posts need a signed-in caller.
func CanListStatus(p *Principal, wantsNonPublic bool) error {
	if wantsNonPublic && p == nil {
		return errs.NewUnauthorizedError("sign in to list unpublished posts")
	}
	return nil
}

// ScopeListing returns the author filter a listing runs with. Staff see every
// unpublished post; authors only their own, so an author filter naming
// someone else is refused.
func ScopeListing(p *Principal, wantsNonPublic bool, authorID string) (string, error) {
	if err := CanListStatus(p, wantsNonPublic); err != nil {
		return "", err
	}
	if !wantsNonPublic || p.IsStaff() {
		return authorID, nil
	}
	if authorID != "" && authorID != p.UserID {
		return "", errs.NewInsufficientRoleError("authors can only list their own unpublished posts")
	}
	return p.UserID, nil
}

// CanReadPost reports whether p may see a post. Published posts are public;
// the rest are visible to whoever may edit them.
func CanReadPost(p *Principal, published bool, authorID string) bool {
	if published {
		return true
	}
	return p != nil && CanEditPost(*p, authorID) == nil
}

// CanEditPost lets staff edit any post and authors edit their own.
func CanEditPost(p Principal, authorID string) error {
	if p.IsStaff() || p.UserID == authorID {
		return nil
	}
	return errs.NewInsufficientRoleError("authors can only change their own posts")
}

func CanManageTaxonomy(p Principal) error {
	if p.IsStaff() {
		return nil
	}
	return errs.NewInsufficientRoleError("categories and tags are managed by editors")
}

func CanManageUsers(p Principal) error {
	if p.Role == RoleAdmin {
		return nil
	}
	return errs.NewInsufficientRoleError("users are managed by admins")
}
