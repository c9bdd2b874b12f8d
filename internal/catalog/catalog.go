package catalog

import "github.com/starford/narrate/internal/models"

// Catalog defines the narration ledger operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Catalog interface {
	Upsert(n models.Narration) error
	Get(path string) (*models.Narration, error)
	List(limit, offset int) ([]models.Narration, int, error)
	Delete(path string) error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
