package shared

import (
	"net/http"
	"strconv"
	"strings"

	"hrsaas/internal/platform/listing"
)

// ParseList reads the common list query string: search, status, sort,
// direction, page and perPage. Extra filter names are copied into Filters.
func ParseList(r *http.Request, filters ...string) listing.Query {
	q := r.URL.Query()
	query := listing.Query{
		Search:  strings.TrimSpace(q.Get("search")),
		Status:  strings.TrimSpace(q.Get("status")),
		Sort:    strings.TrimSpace(q.Get("sort")),
		Desc:    strings.EqualFold(q.Get("direction"), "desc"),
		Page:    positiveInt(q.Get("page"), 1),
		PerPage: positiveInt(q.Get("perPage"), listing.DefaultPerPage),
	}
	if query.Status == "all" {
		query.Status = ""
	}
	if len(filters) > 0 {
		query.Filters = make(map[string]string, len(filters))
		for _, name := range filters {
			if value := strings.TrimSpace(q.Get(name)); value != "" && value != "all" {
				query.Filters[name] = value
			}
		}
	}
	return query
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ListMeta is the meta block of every list response: pagination plus the
// actions the caller may perform on the listed resource.
type ListMeta struct {
	listing.Meta
	Actions []string `json:"actions"`
}
