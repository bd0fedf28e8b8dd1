package backend

import (
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/specialistvlad/buildstatus/internal/frontend"
)

// Backend consumes a tree description. The sequence is ranged over exactly
// once.
type Backend interface {
	Consume(ctx context.Context, defs iter.Seq2[frontend.Definition, error]) (*Summary, error)
}

// Summary reports what a Consume call did.
type Summary struct {
	ExecutionTime time.Duration
	Created       int
	Updated       int
	Unchanged     int
	Deleted       int
	// FileDiffs maps the path of every created or updated file to a
	// unified diff of the change.
	FileDiffs map[string]string
}

func newSummary() *Summary {
	return &Summary{FileDiffs: make(map[string]string)}
}

// Summaries returns the human-readable report lines, in display order.
func (s *Summary) Summaries() []string {
	return []string{
		fmt.Sprintf("Backend executed in %.2fs", s.ExecutionTime.Seconds()),
		fmt.Sprintf("%d total backend files; %d created; %d updated; %d unchanged; %d deleted",
			s.Created+s.Updated+s.Unchanged, s.Created, s.Updated, s.Unchanged, s.Deleted),
	}
}

// SortedDiffs iterates over FileDiffs in ascending path order.
func (s *Summary) SortedDiffs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, path := range slices.Sorted(maps.Keys(s.FileDiffs)) {
			if !yield(path, s.FileDiffs[path]) {
				return
			}
		}
	}
}
