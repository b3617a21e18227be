// Package listing carries the search/filter/sort/paginate contract shared by
// every admin list endpoint and the SQL fragments that implement it.
package listing

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
	// MaxPage keeps (page-1)*perPage within int.
	MaxPage = math.MaxInt / MaxPerPage
)

type Query struct {
	Search  string
	Status  string
	Sort    string
	Desc    bool
	Page    int
	PerPage int
	Filters map[string]string
}

func (q Query) Limit() int {
	if q.PerPage <= 0 {
		return DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		return MaxPerPage
	}
	return q.PerPage
}

func (q Query) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (min(q.Page, MaxPage) - 1) * q.Limit()
}

func (q Query) Filter(name string) string {
	if q.Filters == nil {
		return ""
	}
	return strings.TrimSpace(q.Filters[name])
}

type Meta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	LastPage int `json:"lastPage"`
	From     int `json:"from"`
	To       int `json:"to"`
}

func NewMeta(q Query, total int) Meta {
	perPage := q.Limit()
	page := min(q.Page, MaxPage)
	if page < 1 {
		page = 1
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	meta := Meta{Total: total, Page: page, PerPage: perPage, LastPage: last}
	if total > 0 && q.Offset() < total {
		meta.From = q.Offset() + 1
		meta.To = min(q.Offset()+perPage, total)
	}
	return meta
}

// Page is what list services return: one page of items plus its meta.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Where accumulates AND-ed conditions with positional pgx placeholders.
type Where struct {
	conds []string
	args  []any
}

func NewWhere(cond string, args ...any) *Where {
	w := &Where{}
	w.Add(cond, args...)
	return w
}

// Add appends a condition written with "?" markers; each marker is replaced
// by the next $n placeholder.
func (w *Where) Add(cond string, args ...any) {
	if strings.TrimSpace(cond) == "" {
		return
	}
	var b strings.Builder
	argi := 0
	for _, r := range cond {
		if r == '?' && argi < len(args) {
			w.args = append(w.args, args[argi])
			argi++
			fmt.Fprintf(&b, "$%d", len(w.args))
			continue
		}
		b.WriteRune(r)
	}
	w.conds = append(w.conds, b.String())
}

// Search adds an ILIKE over the given columns when term is non-empty.
func (w *Where) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	pattern := "%" + escapeLike(term) + "%"
	for i, col := range columns {
		parts[i] = col + " ILIKE ?"
		args[i] = pattern
	}
	w.Add("("+strings.Join(parts, " OR ")+")", args...)
}

func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any { return w.args }

// PageSQL returns ORDER BY/LIMIT/OFFSET with placeholders continuing after
// the where args. sortable maps public sort keys to SQL expressions.
func (w *Where) PageSQL(q Query, sortable map[string]string, fallback string) (string, []any) {
	column, ok := sortable[q.Sort]
	if !ok {
		column = fallback
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	n := len(w.args)
	args := append(append([]any{}, w.args...), q.Limit(), q.Offset())
	return fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", column, dir, n+1, n+2), args
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term)
}
