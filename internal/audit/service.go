package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TimelineFilters narrows the audit trail view.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}

// Repository provides read access to stored entries.
type Repository interface {
	TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error)
	TimelineAll(ctx context.Context, filters TimelineFilters) ([]Entry, error)
}

// Service coordinates audit trail reads. The trail is read/export only; there
// is no mutation path through this service.
type Service struct {
	repo Repository
}

// NewService builds an audit read service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches entries with paging.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	filters.Actor = strings.TrimSpace(filters.Actor)
	filters.Action = strings.TrimSpace(filters.Action)

	rows, err := s.repo.TimelineWindow(ctx, filters, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export fetches the whole filtered trail without paging.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	filters.Actor = strings.TrimSpace(filters.Actor)
	filters.Action = strings.TrimSpace(filters.Action)
	return s.repo.TimelineAll(ctx, filters)
}
