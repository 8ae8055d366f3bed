package feeds

import (
	"context"
	"fmt"
	"log/slog"

	"ChallengeScanner/internal/domain"
	"ChallengeScanner/internal/ports"
)

// Strategy captures a single feed-scanning implementation (web crawl,
// sitemap, API, etc.).
type Strategy interface {
	Name() string
	Scan(ctx context.Context, feed domain.SourceFeed) ([]domain.Document, error)
}

// Registry keeps a mapping from feed types to their strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by feed type or an error if it is absent.
func (r *Registry) Resolve(feedType string) (Strategy, error) {
	if strategy, ok := r.strategies[feedType]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("feed type %s is not registered", feedType)
}

// StrategySource implements DocumentSource via registered feed strategies.
type StrategySource struct {
	registry *Registry
	logger   *slog.Logger
}

var _ ports.DocumentSource = (*StrategySource)(nil)

// NewStrategySource wires the strategy registry.
func NewStrategySource(reg *Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{registry: reg, logger: log}
}

// FetchFeed resolves the feed's strategy and returns its documents, stamped
// with the feed and organization identity.
func (s *StrategySource) FetchFeed(ctx context.Context, feed domain.SourceFeed) ([]domain.Document, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("feed registry is not configured")
	}

	strategy, err := s.registry.Resolve(feed.Type)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
	}

	s.debug("scan feed", "feed", feed.Name, "type", feed.Type, "base_url", feed.BaseURL)

	docs, err := strategy.Scan(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("scan feed %s: %w", feed.Name, err)
	}

	for i := range docs {
		docs[i].FeedID = feed.ID
		docs[i].OrgID = feed.OrgID
		docs[i].OrgName = feed.OrgName
	}

	s.debug("feed produced documents", "feed", feed.Name, "count", len(docs))
	return docs, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
