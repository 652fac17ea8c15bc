package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubTimelineRepo struct {
	windowRows []Entry
	allRows    []Entry
	lastLimit  int
	lastOffset int
	lastFilter TimelineFilters
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	s.lastFilter = filters
	s.lastLimit = limit
	s.lastOffset = offset
	return s.windowRows, nil
}

func (s *stubTimelineRepo) TimelineAll(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	s.lastFilter = filters
	return s.allRows, nil
}

func mockEntry(ts, action string) Entry {
	at, _ := time.Parse(time.RFC3339, ts)
	return Entry{ID: uuid.New(), Action: action, ActorID: 1, ActorName: "clerk", OccurredAt: at}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		windowRows: []Entry{
			mockEntry("2026-05-10T10:00:00Z", ActionVoterUpdate),
			mockEntry("2026-05-09T09:00:00Z", ActionVoterUpdate),
			mockEntry("2026-05-08T08:00:00Z", ActionVoterCreate),
		},
	}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if repo.lastLimit != 3 {
		t.Fatalf("expected limit 3, got %d", repo.lastLimit)
	}
	if repo.lastOffset != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastOffset)
	}
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	if _, err := svc.Timeline(context.Background(), TimelineFilters{Page: -1, PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastLimit != 51 {
		t.Fatalf("expected page size clamped to 50, got limit %d", repo.lastLimit)
	}
	if repo.lastOffset != 0 {
		t.Fatalf("expected page clamped to 1, got offset %d", repo.lastOffset)
	}
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{
		allRows: []Entry{
			mockEntry("2026-05-10T10:00:00Z", ActionSecurityLockout),
			mockEntry("2026-05-09T09:00:00Z", ActionVoterDelete),
		},
	}
	svc := NewService(repo)
	rows, err := svc.Export(context.Background(), TimelineFilters{Actor: "  clerk "})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if repo.lastFilter.Actor != "clerk" {
		t.Fatalf("expected trimmed actor filter, got %q", repo.lastFilter.Actor)
	}
}
