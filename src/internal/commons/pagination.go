package commons

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePage reads limit/offset query parameters, clamping them to sane bounds.
func ParsePage(query url.Values) Page {
	page := Page{Limit: DefaultPageLimit}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page.Limit = v
		}
	}
	if page.Limit > MaxPageLimit {
		page.Limit = MaxPageLimit
	}

	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page.Offset = v
		}
	}

	return page
}

// Normalize applies the same bounds as ParsePage to values coming from code.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
