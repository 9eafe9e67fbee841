package db

import (
	"context"
	"fmt"

	dbm "github.com/gartstein/contributions/internal/contributions/db/models"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
)

// AddContingenciaComun appends a contribution-base row. The referenced
// worker/year must exist (ErrDanglingReference) and the (worker, year,
// period) key must be free (ErrDuplicateKey).
func (r *Repository) AddContingenciaComun(ctx context.Context, c *models.ContingenciaComun) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		parent, err := tx.exists(ctx, &dbm.Worker{}, "worker_id = ? AND year = ?", c.WorkerID, c.Year)
		if err != nil {
			return err
		}
		if !parent {
			return fmt.Errorf("%w: worker %s has no record for %d", e.ErrDanglingReference, c.WorkerID, c.Year)
		}

		taken, err := tx.exists(ctx, &dbm.ContingenciaComun{},
			"worker_id = ? AND year = ? AND period = ?", c.WorkerID, c.Year, c.Period)
		if err != nil {
			return err
		}
		if taken {
			return e.ErrDuplicateKey
		}

		row := contingenciaToRow(c)
		if err := tx.db.WithContext(ctx).Create(row).Error; err != nil {
			return translate(err, e.ErrDanglingReference)
		}
		*c = rowToContingencia(row)
		return nil
	})
}

// ListContingencias returns the contribution-base rows of a worker/year in
// chronological period order. The result is empty, not nil, when none exist.
func (r *Repository) ListContingencias(ctx context.Context, workerID string, year int) ([]models.ContingenciaComun, error) {
	var rows []dbm.ContingenciaComun
	result := r.db.WithContext(ctx).
		Where("worker_id = ? AND year = ?", workerID, year).
		Order("period_order, period").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	out := make([]models.ContingenciaComun, 0, len(rows))
	for i := range rows {
		out = append(out, rowToContingencia(&rows[i]))
	}
	return out, nil
}
