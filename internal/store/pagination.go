package store

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
)

// Page size bounds.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// cursorPrefix tags offset cursors so stray base64 is rejected.
const cursorPrefix = "o:"

// ErrInvalidCursor is returned for cursors this package did not issue.
var ErrInvalidCursor = &Error{
	Code:    http.StatusBadRequest,
	Message: "invalid cursor",
}

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // items per page, defaults to 100 with a maximum of 1000
	Cursor string // opaque cursor from a previous page, empty for the first
}

// PaginatedResult contains one page of items and how to fetch the next.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// EncodeCursor creates an opaque cursor pointing at offset.
func EncodeCursor(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor returns the offset a cursor points at. The empty cursor is
// offset zero.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor.WithCause(err)
	}
	digits, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(digits)
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

// Paginate cuts one page out of an already ordered slice. A cursor past
// the end yields an empty page.
func Paginate[T any](items []T, p PaginationParams) (*PaginatedResult[T], error) {
	p.Validate()

	offset, err := DecodeCursor(p.Cursor)
	if err != nil {
		return nil, err
	}
	offset = min(offset, len(items))
	end := min(offset+p.Limit, len(items))

	page := &PaginatedResult[T]{
		Items: items[offset:end],
		Total: len(items),
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	if end < len(items) {
		page.HasMore = true
		page.NextCursor = EncodeCursor(end)
	}
	return page, nil
}
