package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDuplicateSlug      = errors.New("slug already in use")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCategoryInUse      = errors.New("category still has posts")
)

func NewDuplicateSlug(entity, slug string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%s %w", entity, ErrDuplicateSlug),
		Details:    slug,
		Field:      "slug",
	}
}

// NewStorageUnavailable marks a backend that could not be reached or did not
// answer before the deadline. Callers may degrade on it; nothing else should.
func NewStorageUnavailable(details string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrStorageUnavailable,
		Details:    details,
		Cause:      cause,
	}
}

func NewCategoryInUse(slug string, posts int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrCategoryInUse,
		Details:    fmt.Sprintf("%s is used by %d post(s)", slug, posts),
		Field:      "categoryId",
	}
}

func IsDuplicateSlug(err error) bool {
	return errors.Is(err, ErrDuplicateSlug)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

func IsCategoryInUse(err error) bool {
	return errors.Is(err, ErrCategoryInUse)
}
