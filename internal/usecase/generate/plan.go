package generate

import (
	"context"

	"astrofeed/internal/domain/entity"
)

// Generator is the content provider capability plans depend on.
type Generator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (entity.Artifact, error)
}

// Draft is one unit's generated content before normalization.
type Draft struct {
	Unit  string
	Title string
	Text  string

	// Image is optional; nil when no image was requested or it failed.
	Image *entity.Artifact

	Provider string
	Model    string
}

// Plan describes one kind of generated content. The orchestrator owns the
// cycle; a plan only knows its units, its prompts and its storage.
type Plan interface {
	Kind() entity.Kind

	// Units lists every unit the period should have, in persist order.
	Units(ctx context.Context, period entity.Period) ([]string, error)

	// Existing reports which units are already stored for period.
	Existing(ctx context.Context, period entity.Period) (map[string]bool, error)

	// Generate produces one unit's draft. It may be retried.
	Generate(ctx context.Context, period entity.Period, unit string) (Draft, error)

	// Persist upserts a normalized draft keyed by its natural key.
	Persist(ctx context.Context, period entity.Period, d Draft) error
}
