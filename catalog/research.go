package catalog

import (
	"context"
	"fmt"
	"time"

	"badgerelay/registry"
)

// Researcher looks up provenance hints for a freshly discovered badge. It is
// best-effort and decorative: results only seed the research_needed queue for
// a human reviewer, they resolve no factual claim themselves.
type Researcher interface {
	Research(ctx context.Context, id, name string) []registry.ResearchResult
}

// StubResearcher generates placeholder search-query records. It performs no
// network calls; the Delay between records is a courtesy pause mirroring the
// rate limit a real lookup against the catalog site would need.
type StubResearcher struct {
	Delay time.Duration
}

// queriesPerBadge caps how many of the generated queries are recorded.
const queriesPerBadge = 2

func (s *StubResearcher) Research(ctx context.Context, id, name string) []registry.ResearchResult {
	queries := []string{
		fmt.Sprintf("%q Twitch badge how to obtain", name),
		fmt.Sprintf("%q Twitch badge %d", id, time.Now().Year()),
		fmt.Sprintf("Twitch %q badge event", name),
		fmt.Sprintf("%q badge requirements", name),
	}
	results := make([]registry.ResearchResult, 0, queriesPerBadge)
	for i, q := range queries[:queriesPerBadge] {
		if i > 0 && s.Delay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(s.Delay):
			}
		}
		results = append(results, registry.ResearchResult{
			Query:     q,
			Timestamp: time.Now().UTC(),
			Results:   fmt.Sprintf("Auto-research for %s - manual verification needed", name),
		})
	}
	return results
}
