package content

import (
	"strings"

	"github.com/rpupo63/consulting-site-backend/errs"
)

// Field names a filterable attribute of a post, independent of any backend's
// column names.
type Field string

const (
	FieldTitle    Field = "title"
	FieldExcerpt  Field = "excerpt"
	FieldBody     Field = "body"
	FieldStatus   Field = "status"
	FieldFeatured Field = "featured"
	FieldAuthorID Field = "authorId"
	FieldCategory Field = "category" // category slug
	FieldTag      Field = "tag"      // slug of any attached tag
)

type Operator string

const (
	OpEquals   Operator = "eq"
	OpContains Operator = "contains" // case-insensitive substring
	OpAny      Operator = "any"      // true when any clause in Any holds
)

type Clause struct {
	Field Field
	Op    Operator
	Value any
	Any   []Clause
}

// Predicate is a conjunction of clauses. An empty predicate matches every post.
type Predicate struct {
	Clauses []Clause
}

func (p *Predicate) and(c Clause) {
	p.Clauses = append(p.Clauses, c)
}

// Status returns the status the predicate pins, if any.
func (p Predicate) Status() (Status, bool) {
	for _, c := range p.Clauses {
		if c.Field == FieldStatus && c.Op == OpEquals {
			s, ok := c.Value.(Status)
			return s, ok
		}
	}
	return "", false
}

type SortKey string

const (
	SortPublishedAt SortKey = "publishedAt"
	SortCreatedAt   SortKey = "createdAt"
	SortUpdatedAt   SortKey = "updatedAt"
	SortTitle       SortKey = "title"
)

type Sort struct {
	Key  SortKey
	Desc bool
}

type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Query is a fully resolved listing request.
type Query struct {
	Predicate Predicate
	Page      Page
	Sort      Sort
}

// ListRequest carries the listing parameters as the caller sent them. Empty
// strings mean "not specified".
type ListRequest struct {
	Search    string
	Category  string
	Tag       string
	Featured  *bool
	AuthorID  string
	Status    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// WantsNonPublic reports whether the request asks for anything other than
// published posts.
func (r ListRequest) WantsNonPublic() bool {
	status := strings.TrimSpace(r.Status)
	return status != "" && !strings.EqualFold(status, string(StatusPublished))
}

// Resolve compiles the filter, pagination and sort parameters, reporting every
// invalid one in a single ValidationError.
func (r ListRequest) Resolve() (Query, error) {
	var verr errs.ValidationError

	predicate := CompileFilter(r, &verr)
	page := ResolvePage(r.Page, r.Limit)
	sort := ResolveSort(r.SortBy, r.SortOrder, &verr)

	if err := verr.OrNil(); err != nil {
		return Query{}, err
	}
	return Query{Predicate: predicate, Page: page, Sort: sort}, nil
}

// CompileFilter turns the filter parameters into a backend-neutral predicate.
// Status defaults to PUBLISHED. An unknown status is added to verr.
func CompileFilter(r ListRequest, verr *errs.ValidationError) Predicate {
	var p Predicate

	if search := strings.TrimSpace(r.Search); search != "" {
		p.and(Clause{Op: OpAny, Any: []Clause{
			{Field: FieldTitle, Op: OpContains, Value: search},
			{Field: FieldExcerpt, Op: OpContains, Value: search},
			{Field: FieldBody, Op: OpContains, Value: search},
		}})
	}
	if category := strings.TrimSpace(r.Category); category != "" {
		p.and(Clause{Field: FieldCategory, Op: OpEquals, Value: category})
	}
	if tag := strings.TrimSpace(r.Tag); tag != "" {
		p.and(Clause{Field: FieldTag, Op: OpEquals, Value: tag})
	}
	if r.Featured != nil {
		p.and(Clause{Field: FieldFeatured, Op: OpEquals, Value: *r.Featured})
	}
	if author := strings.TrimSpace(r.AuthorID); author != "" {
		p.and(Clause{Field: FieldAuthorID, Op: OpEquals, Value: author})
	}

	status := StatusPublished
	if raw := strings.TrimSpace(r.Status); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			verr.Add("status", err.Error())
		}
		status = parsed
	}
	p.and(Clause{Field: FieldStatus, Op: OpEquals, Value: status})

	return p
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ResolvePage never fails: an omitted limit takes DefaultLimit, anything else
// is clamped into [1, MaxLimit]; a page below 1 becomes 1.
func ResolvePage(page, limit int) Page {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if page < 1 {
		page = 1
	}
	return Page{Number: page, Limit: limit}
}

var sortKeys = map[string]SortKey{
	"publishedat": SortPublishedAt,
	"createdat":   SortCreatedAt,
	"updatedat":   SortUpdatedAt,
	"title":       SortTitle,
}

// ResolveSort defaults to publishedAt descending. Values outside the
// allow-list are added to verr rather than passed on.
func ResolveSort(sortBy, sortOrder string, verr *errs.ValidationError) Sort {
	sort := Sort{Key: SortPublishedAt, Desc: true}

	if raw := strings.TrimSpace(sortBy); raw != "" {
		key, ok := sortKeys[strings.ToLower(raw)]
		if !ok {
			verr.Addf("sortBy", "unsupported sort key %q (allowed: publishedAt, createdAt, updatedAt, title)", raw)
		}
		sort.Key = key
	}

	switch strings.ToLower(strings.TrimSpace(sortOrder)) {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		verr.Addf("sortOrder", "unsupported sort order %q (allowed: asc, desc)", sortOrder)
	}

	return sort
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
