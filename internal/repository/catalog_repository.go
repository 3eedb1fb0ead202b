package repository

import (
	"context"

	"github.com/png-egov/procurement-plans/internal/apperr"
	"github.com/png-egov/procurement-plans/internal/catalog"
	"github.com/png-egov/procurement-plans/internal/database"
)

// CatalogRepository loads the read-only reference catalogs. The core never
// mutates them.
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var catalogTables = map[catalog.Kind]string{
	catalog.KindMethod:        "procurement_methods",
	catalog.KindContractType:  "contract_types",
	catalog.KindUnitOfMeasure: "units_of_measure",
	catalog.KindProvince:      "provinces",
}

// LoadSet reads every active entry of every catalog into one immutable
// snapshot.
func (r *CatalogRepository) LoadSet(ctx context.Context) (*catalog.Set, error) {
	set := catalog.NewSet()
	for kind, table := range catalogTables {
		if err := r.loadKind(ctx, set, kind, table); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (r *CatalogRepository) loadKind(ctx context.Context, set *catalog.Set, kind catalog.Kind, table string) error {
	rows, err := r.db.Query(ctx, `SELECT code, name FROM `+table+` WHERE is_active`)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to load catalog "+table)
	}
	defer rows.Close()

	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.Code, &e.Name); err != nil {
			return apperr.Wrap(err, apperr.ErrCodeInternal, "failed to scan catalog entry")
		}
		set.Add(kind, e)
	}
	return nil
}
