package backend

import (
	"net/url"
	"strings"
)

// Params is the open filter bag accepted by list endpoints.
type Params map[string]string

// Values drops empty entries and returns the rest as a query string.
func (p Params) Values() url.Values {
	values := url.Values{}
	for key, value := range p {
		if strings.TrimSpace(value) == "" {
			continue
		}
		values.Set(key, value)
	}
	return values
}

// With returns a copy of p with key set to value.
func (p Params) With(key, value string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[key] = value
	return out
}

// PageMeta is the pagination envelope shared by list endpoints.
type PageMeta struct {
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// Page is one server-side page of records.
type Page[T any] struct {
	Items []T
	PageMeta
}

func newPage[T any](items []T, meta PageMeta) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, PageMeta: meta}
}

// MutationResult is returned by create, update and delete endpoints.
type MutationResult struct {
	Message     string `json:"message"`
	ID          int    `json:"id,omitempty"`
	NumeroSerie string `json:"numero_serie,omitempty"`
}

func pathID(id string) string { return url.PathEscape(strings.TrimSpace(id)) }
