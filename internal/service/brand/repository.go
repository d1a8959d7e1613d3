package brand

import (
	"context"

	"github.com/ignite/campaign-insights/internal/domain"
)

// Repository defines the data access contract for brands.
// Implementations must be safe for concurrent use.
type Repository interface {
	// List returns every brand ordered by name.
	List(ctx context.Context) ([]domain.Brand, error)

	// Upsert inserts or replaces a brand's industry.
	Upsert(ctx context.Context, b domain.Brand) error

	// Delete removes a brand. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, name string) error
}
