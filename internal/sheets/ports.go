package sheets

import (
	"context"

	"ledger/internal/view"
)

// Ports for outbound adapters.
type (
	// SnapshotExporter publishes a projected ledger to an external sheet,
	// replacing whatever a previous export wrote.
	SnapshotExporter interface {
		Export(ctx context.Context, snap view.Snapshot) error
	}

	// TaxonomyReader lists the categories offered to users.
	TaxonomyReader interface {
		List(ctx context.Context) ([]string, error)
	}
)
