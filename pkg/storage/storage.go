// Package storage keeps a history of analyses.
//
// Three [Store] backends share one contract:
//
//   - [MemoryStore]: process-local, used by tests and a server without a
//     database
//   - [FileStore]: one JSON file per analysis, the CLI default
//   - [MongoStore]: a MongoDB collection, for a server shared by a team
//
// Stores are keyed by the analysis ID and list newest first.
package storage

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/matzehuels/klumpen/pkg/errors"
	"github.com/matzehuels/klumpen/pkg/report"
)

// DefaultListLimit caps List when the caller passes limit <= 0.
const DefaultListLimit = 50

// Store persists analyses.
type Store interface {
	// Save stores a. Saving an ID that already exists replaces it.
	Save(ctx context.Context, a *report.Analysis) error

	// Get returns the analysis with id, or an ANALYSIS_NOT_FOUND error.
	Get(ctx context.Context, id string) (*report.Analysis, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes the analysis with id, or returns ANALYSIS_NOT_FOUND.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Summary is the listing view of a stored analysis.
type Summary struct {
	ID          string    `json:"id" yaml:"id" bson:"_id"`
	Target      string    `json:"target" yaml:"target" bson:"target"`
	Bundler     string    `json:"bundler,omitempty" yaml:"bundler,omitempty" bson:"bundler,omitempty"`
	InputBytes  int64     `json:"input_bytes" yaml:"input_bytes" bson:"input_bytes"`
	OutputBytes int64     `json:"output_bytes" yaml:"output_bytes" bson:"output_bytes"`
	Packages    int       `json:"packages" yaml:"packages" bson:"packages"`
	Modules     int       `json:"modules" yaml:"modules" bson:"modules"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at" bson:"created_at"`
}

// SummaryOf returns the summary of a.
func SummaryOf(a *report.Analysis) Summary {
	return Summary{
		ID:          a.ID,
		Target:      a.Target,
		Bundler:     a.Bundler,
		InputBytes:  a.InputBytes,
		OutputBytes: a.OutputBytes,
		Packages:    a.Stats.Packages,
		Modules:     a.Stats.Modules,
		CreatedAt:   a.CreatedAt,
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeAnalysisNotFound, "analysis %s not found", id)
}

func checkSave(a *report.Analysis) error {
	if a == nil {
		return errors.New(errors.ErrCodeInvalidInput, "cannot save a nil analysis")
	}
	return errors.ValidateAnalysisID(a.ID)
}

// newestFirst sorts summaries by creation time, newest first, and
// truncates them to limit.
func newestFirst(list []Summary, limit int) []Summary {
	slices.SortFunc(list, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}
