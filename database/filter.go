package database

import (
	"fmt"
	"strings"

	"github.com/rpupo63/consulting-site-backend/content"
)

// Both adapters render the predicate through filterSQL and orderSQL so a query
// selects and orders the same rows whichever backend runs it. Column names
// come only from the maps below, never from caller input.

var textColumns = map[content.Field]string{
	content.FieldTitle:    "posts.title",
	content.FieldExcerpt:  "posts.excerpt",
	content.FieldBody:     "posts.body",
	content.FieldAuthorID: "posts.author_id",
}

var sortColumns = map[content.SortKey]string{
	content.SortPublishedAt: "posts.published_at",
	content.SortCreatedAt:   "posts.created_at",
	content.SortUpdatedAt:   "posts.updated_at",
	content.SortTitle:       "posts.title",
}

const (
	categorySlugSQL = "posts.category_id IN (SELECT categories.id FROM categories WHERE categories.slug = ?)"
	tagSlugSQL      = "EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id " +
		"WHERE post_tags.post_id = posts.id AND tags.slug = ?)"
)

// filterSQL renders p as a WHERE body with positional arguments. An empty
// predicate renders as a tautology.
func filterSQL(p content.Predicate) (string, []any, error) {
	if len(p.Clauses) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(p.Clauses))
	var args []any
	for _, c := range p.Clauses {
		sql, clauseArgs, err := clauseSQL(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, clauseArgs...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func clauseSQL(c content.Clause) (string, []any, error) {
	switch c.Op {
	case content.OpAny:
		if len(c.Any) == 0 {
			return "1 = 0", nil, nil
		}
		parts := make([]string, 0, len(c.Any))
		var args []any
		for _, sub := range c.Any {
			sql, subArgs, err := clauseSQL(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			args = append(args, subArgs...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args, nil

	case content.OpContains:
		column, ok := textColumns[c.Field]
		needle, isString := c.Value.(string)
		if !ok || !isString {
			return "", nil, fmt.Errorf("cannot apply contains to %s", c.Field)
		}
		return fmt.Sprintf(`LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, column), []any{"%" + escapeLike(needle) + "%"}, nil

	case content.OpEquals:
		switch c.Field {
		case content.FieldCategory:
			return categorySlugSQL, []any{c.Value}, nil
		case content.FieldTag:
			return tagSlugSQL, []any{c.Value}, nil
		case content.FieldFeatured:
			return "posts.featured = ?", []any{c.Value}, nil
		case content.FieldStatus:
			status, ok := c.Value.(content.Status)
			if !ok {
				return "", nil, fmt.Errorf("status clause holds %T", c.Value)
			}
			return "posts.status = ?", []any{string(status)}, nil
		}
		if column, ok := textColumns[c.Field]; ok {
			return column + " = ?", []any{c.Value}, nil
		}
	}
	return "", nil, fmt.Errorf("unsupported clause %s %s", c.Field, c.Op)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// orderSQL sorts rows without a value last and breaks ties by id.
func orderSQL(s content.Sort) (string, error) {
	column, ok := sortColumns[s.Key]
	if !ok {
		return "", fmt.Errorf("unsupported sort key %q", s.Key)
	}
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END, %[1]s %[2]s, posts.id ASC", column, direction), nil
}
