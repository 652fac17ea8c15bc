// Package dashboard aggregates the landing-page metric cards. Each card is
// included only when the actor holds its metric permission; the queries for
// denied cards never run.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rollcall-hq/rollcall/internal/authz"
)

// StatsRepository provides the aggregate counts behind the metric cards.
type StatsRepository interface {
	CountVoters(ctx context.Context) (int64, error)
	CountVoted(ctx context.Context) (int64, error)
	CountContacted(ctx context.Context) (int64, error)
	CountSupporters(ctx context.Context) (int64, error)
	CountVolunteers(ctx context.Context) (int64, error)
}

// Metric is a single resolved card value.
type Metric struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Total int64  `json:"total,omitempty"`
}

// Summary is the dashboard payload. Metrics holds only the cards the actor
// may see, in a stable order.
type Summary struct {
	Metrics []Metric `json:"metrics"`
}

// Service computes the dashboard summary.
type Service struct {
	repo     StatsRepository
	resolver *authz.Resolver
}

// NewService builds Service instance.
func NewService(repo StatsRepository, resolver *authz.Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

type card struct {
	name string
	perm authz.Permission
	load func(ctx context.Context, s *Service, m *Metric) error
}

// cards is the fixed card order. Turnout and support carry a total so the
// client can render a ratio.
var cards = []card{
	{
		name: "turnout",
		perm: authz.PermMetricTurnout,
		load: func(ctx context.Context, s *Service, m *Metric) error {
			voted, err := s.repo.CountVoted(ctx)
			if err != nil {
				return err
			}
			total, err := s.repo.CountVoters(ctx)
			if err != nil {
				return err
			}
			m.Value, m.Total = voted, total
			return nil
		},
	},
	{
		name: "coverage",
		perm: authz.PermMetricCoverage,
		load: func(ctx context.Context, s *Service, m *Metric) error {
			contacted, err := s.repo.CountContacted(ctx)
			if err != nil {
				return err
			}
			total, err := s.repo.CountVoters(ctx)
			if err != nil {
				return err
			}
			m.Value, m.Total = contacted, total
			return nil
		},
	},
	{
		name: "support",
		perm: authz.PermMetricSupport,
		load: func(ctx context.Context, s *Service, m *Metric) error {
			supporters, err := s.repo.CountSupporters(ctx)
			if err != nil {
				return err
			}
			m.Value = supporters
			return nil
		},
	},
	{
		name: "volunteers",
		perm: authz.PermMetricVolunteers,
		load: func(ctx context.Context, s *Service, m *Metric) error {
			volunteers, err := s.repo.CountVolunteers(ctx)
			if err != nil {
				return err
			}
			m.Value = volunteers
			return nil
		},
	},
}

// Summary resolves the actor's visible cards and loads them concurrently.
func (s *Service) Summary(ctx context.Context, actor authz.ActorInfo) (Summary, error) {
	visible := make([]card, 0, len(cards))
	for _, c := range cards {
		if s.resolver.IsAllowed(actor, c.perm) {
			visible = append(visible, c)
		}
	}

	metrics := make([]Metric, len(visible))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range visible {
		metrics[i].Name = c.name
		g.Go(func() error {
			return c.load(gctx, s, &metrics[i])
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return Summary{Metrics: metrics}, nil
}
