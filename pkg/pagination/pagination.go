package pagination

import (
	"strconv"
	"strings"
)

const (
	// DefaultSize is the standard page size when a size is not provided.
	DefaultSize = 20
	// MaxSize caps how many rows any page query can request.
	MaxSize = 100
)

// Params holds offset pagination inputs from controllers or services.
// Page is zero based.
type Params struct {
	Page int
	Size int
}

// Meta describes the page that was served.
type Meta struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	HasNext       bool  `json:"hasNext"`
}

// NormalizeSize enforces the configured default and maximum sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Normalize clamps page and size into usable values.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 0 {
		page = 0
	}
	return Params{Page: page, Size: NormalizeSize(p.Size)}
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// NewMeta computes the page metadata from the total row count.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.Size) - 1) / int64(n.Size))
	return Meta{
		Page:          n.Page,
		Size:          n.Size,
		TotalElements: total,
		TotalPages:    pages,
		HasNext:       n.Page+1 < pages,
	}
}

// ParseInt parses an optional query value, returning fallback when blank.
func ParseInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
