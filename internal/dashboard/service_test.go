package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rollcall-hq/rollcall/internal/authz"
)

type stubStats struct {
	voters, voted, contacted, supporters, volunteers int64

	calls atomic.Int64
	err   error
}

func (s *stubStats) CountVoters(context.Context) (int64, error)     { return s.get(s.voters) }
func (s *stubStats) CountVoted(context.Context) (int64, error)      { return s.get(s.voted) }
func (s *stubStats) CountContacted(context.Context) (int64, error)  { return s.get(s.contacted) }
func (s *stubStats) CountSupporters(context.Context) (int64, error) { return s.get(s.supporters) }
func (s *stubStats) CountVolunteers(context.Context) (int64, error) { return s.get(s.volunteers) }

func (s *stubStats) get(n int64) (int64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return n, nil
}

func metricNames(summary Summary) []string {
	names := make([]string, 0, len(summary.Metrics))
	for _, m := range summary.Metrics {
		names = append(names, m.Name)
	}
	return names
}

func TestSummarySuperadminSeesAllCards(t *testing.T) {
	stats := &stubStats{voters: 1200, voted: 480, contacted: 700, supporters: 310, volunteers: 42}
	svc := NewService(stats, authz.NewResolver())

	summary, err := svc.Summary(context.Background(), authz.ActorInfo{Username: "root", Role: authz.RoleSuperadmin})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	names := metricNames(summary)
	want := []string{"turnout", "coverage", "support", "volunteers"}
	if len(names) != len(want) {
		t.Fatalf("cards = %v", names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("card order = %v, want %v", names, want)
		}
	}
	if summary.Metrics[0].Value != 480 || summary.Metrics[0].Total != 1200 {
		t.Fatalf("turnout = %+v", summary.Metrics[0])
	}
}

func TestSummaryFiltersDeniedCards(t *testing.T) {
	stats := &stubStats{voters: 100, voted: 10}
	svc := NewService(stats, authz.NewResolver())

	// Standard-user legacy fallback grants turnout only.
	summary, err := svc.Summary(context.Background(), authz.ActorInfo{Username: "vol", Role: authz.RoleStandardUser})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	names := metricNames(summary)
	if len(names) != 1 || names[0] != "turnout" {
		t.Fatalf("cards = %v", names)
	}
	// Only the two turnout queries may have run.
	if got := stats.calls.Load(); got != 2 {
		t.Fatalf("repository calls = %d, want 2", got)
	}
}

func TestSummaryExplicitSetControlsCards(t *testing.T) {
	stats := &stubStats{}
	svc := NewService(stats, authz.NewResolver())

	actor := authz.ActorInfo{
		Username:    "analyst",
		Role:        authz.RoleAdmin,
		Permissions: []authz.Permission{authz.PermPageDashboard, authz.PermMetricSupport},
	}
	summary, err := svc.Summary(context.Background(), actor)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	names := metricNames(summary)
	if len(names) != 1 || names[0] != "support" {
		t.Fatalf("cards = %v", names)
	}
}

func TestSummaryPropagatesQueryError(t *testing.T) {
	boom := errors.New("db down")
	stats := &stubStats{err: boom}
	svc := NewService(stats, authz.NewResolver())

	_, err := svc.Summary(context.Background(), authz.ActorInfo{Username: "root", Role: authz.RoleSuperadmin})
	if !errors.Is(err, boom) {
		t.Fatalf("expected query error, got %v", err)
	}
}
