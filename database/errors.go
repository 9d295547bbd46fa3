package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/rpupo63/consulting-site-backend/errs"
)

// storeErr maps a backend error onto the errs taxonomy. Posts, categories and
// tags are unique by slug (names derive their slugs), so any unique violation
// on them is a slug conflict.
func storeErr(operation, entity string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.NewNotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return duplicate(entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errs.NewForeignKeyConstraintError(entity, err)
	}

	classified := errs.NewDatabaseError(operation, entity, err)
	if errs.IsAlreadyExists(classified) {
		return duplicate(entity)
	}
	return classified
}

func duplicate(entity string) error {
	if entity == entityUser {
		return errs.NewAlreadyExists(entity)
	}
	return errs.NewDuplicateSlug(entity, "")
}

// errNoRows is how the remote adapter reports a lookup or write that matched
// nothing, so both adapters share one mapping.
var errNoRows = gorm.ErrRecordNotFound

const (
	entityPost     = "post"
	entityCategory = "category"
	entityTag      = "tag"
	entityUser     = "user"
)
