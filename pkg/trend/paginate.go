package trend

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50

	// MaxPage keeps (page-1)*limit within int range.
	MaxPage = math.MaxInt / MaxLimit
)

// PageRequest is a clamped page window.
type PageRequest struct {
	Page  int
	Limit int
}

// Pagination describes the returned window.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalCount int  `json:"totalCount"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// ParsePage reads query-string values. Missing or non-numeric values fall
// back to the defaults; numbers are clamped to 1 <= page <= MaxPage and
// 1 <= limit <= 50.
func ParsePage(page, limit string) PageRequest {
	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil {
		p = DefaultPage
	}
	l, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil {
		l = DefaultLimit
	}
	return NewPageRequest(p, l)
}

// NewPageRequest clamps page and limit.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset is the index of the first topic in the window.
func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// SortTopics orders topics by launch score, highest first. Ties keep their
// merge order.
func SortTopics(topics []*Topic) {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].LaunchScore > topics[j].LaunchScore
	})
}

// Paginate sorts topics in place and returns the requested window.
func Paginate(topics []*Topic, req PageRequest) ([]*Topic, Pagination) {
	req = NewPageRequest(req.Page, req.Limit)
	SortTopics(topics)

	total := len(topics)
	pages := (total + req.Limit - 1) / req.Limit
	p := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		TotalCount: total,
		TotalPages: pages,
		HasMore:    req.Page < pages,
	}

	// Compare page numbers rather than offsets so far-out pages stay empty.
	if req.Page > pages {
		return []*Topic{}, p
	}
	offset := req.Offset()
	end := offset + req.Limit
	if end > total {
		end = total
	}
	return topics[offset:end], p
}
