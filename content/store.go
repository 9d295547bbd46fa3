package content

import "context"

type LookupField string

const (
	BySlug LookupField = "slug"
	ByID   LookupField = "id"
)

// Store is the persistence port. Adapters return errs.NotFound for missing
// rows, errs.DuplicateSlug for slug collisions and errs.StorageUnavailable
// when the backend cannot be reached.
type Store interface {
	ListPosts(ctx context.Context, q Query) ([]RawPost, int, error)
	FindPost(ctx context.Context, by LookupField, value string) (*RawPost, error)
	CreatePost(ctx context.Context, rec PostRecord) error
	UpdatePost(ctx context.Context, rec PostRecord) error
	DeletePost(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]Category, error)
	FindCategory(ctx context.Context, by LookupField, value string) (*Category, error)
	CreateCategory(ctx context.Context, c Category) error
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListTags(ctx context.Context) ([]Tag, error)
	FindTags(ctx context.Context, ids []string) ([]Tag, error)
	FindTag(ctx context.Context, by LookupField, value string) (*Tag, error)
	CreateTag(ctx context.Context, t Tag) error
	UpdateTag(ctx context.Context, t Tag) error
	DeleteTag(ctx context.Context, id string) error
}
