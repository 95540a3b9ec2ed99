package reports

import "context"

// Repository reads posted document lines for report replay.
type Repository interface {
	// PostedLines returns lines of posted documents matching the
	// query, ordered by conduction time ascending.
	PostedLines(ctx context.Context, q LineQuery) ([]LineFact, error)
}
