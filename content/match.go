package content

import (
	"sort"
	"strings"
	"time"
)

// Matches evaluates the predicate against a row in memory with the same
// semantics the SQL renderer gives it: substring matches fold ASCII case only,
// equality is exact.
func (p Predicate) Matches(row RawPost) bool {
	for _, c := range p.Clauses {
		if !c.matches(row) {
			return false
		}
	}
	return true
}

func (c Clause) matches(row RawPost) bool {
	switch c.Op {
	case OpAny:
		for _, sub := range c.Any {
			if sub.matches(row) {
				return true
			}
		}
		return false
	case OpContains:
		needle, _ := c.Value.(string)
		return strings.Contains(asciiLower(textField(row, c.Field)), asciiLower(needle))
	case OpEquals:
		switch c.Field {
		case FieldFeatured:
			want, _ := c.Value.(bool)
			return row.Featured == want
		case FieldTag:
			want, _ := c.Value.(string)
			for _, tag := range row.Tags {
				if tag.Slug == want {
					return true
				}
			}
			return false
		case FieldStatus:
			want, _ := c.Value.(Status)
			return row.Status == string(want)
		default:
			want, _ := c.Value.(string)
			return textField(row, c.Field) == want
		}
	}
	return false
}

func textField(row RawPost, field Field) string {
	switch field {
	case FieldTitle:
		return row.Title
	case FieldExcerpt:
		return row.Excerpt
	case FieldBody:
		return row.Body
	case FieldAuthorID:
		return row.AuthorID
	case FieldCategory:
		return row.CategorySlug
	}
	return ""
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// SortRows orders rows the way the SQL adapters do: by the sort key, rows
// without a value last, ties broken by id ascending.
func SortRows(rows []RawPost, s Sort) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if cmp := compareBy(a, b, s); cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}

func compareBy(a, b RawPost, s Sort) int {
	if s.Key == SortTitle {
		return directed(strings.Compare(a.Title, b.Title), s.Desc)
	}

	at, bt := timeKey(a, s.Key), timeKey(b, s.Key)
	switch {
	case at == nil && bt == nil:
		return 0
	case at == nil:
		return 1
	case bt == nil:
		return -1
	}
	return directed(at.Compare(*bt), s.Desc)
}

func timeKey(row RawPost, key SortKey) *time.Time {
	switch key {
	case SortCreatedAt:
		return &row.CreatedAt
	case SortUpdatedAt:
		return &row.UpdatedAt
	}
	return row.PublishedAt
}

func directed(cmp int, desc bool) int {
	if desc {
		return -cmp
	}
	return cmp
}

// Paginate filters, sorts and slices rows in memory.
func Paginate(rows []RawPost, q Query) ([]RawPost, int) {
	matched := make([]RawPost, 0, len(rows))
	for _, row := range rows {
		if q.Predicate.Matches(row) {
			matched = append(matched, row)
		}
	}
	SortRows(matched, q.Sort)

	total := len(matched)
	start := q.Page.Offset()
	if start >= total {
		return []RawPost{}, total
	}
	end := start + q.Page.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total
}
