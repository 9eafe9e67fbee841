package db

import (
	"context"
	"fmt"
	"time"

	dbm "github.com/gartstein/contributions/internal/contributions/db/models"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"go.uber.org/zap"
)

// CreateWorker inserts a new worker/year record. It fails with
// ErrDuplicateKey when the pair exists and, in hard reference mode, with
// ErrDanglingReference when the year has no convenio row.
func (r *Repository) CreateWorker(ctx context.Context, worker *models.Worker) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.checkConvenio(ctx, worker.Year); err != nil {
			return err
		}

		exists, err := tx.exists(ctx, &dbm.Worker{}, "worker_id = ? AND year = ?", worker.WorkerID, worker.Year)
		if err != nil {
			return err
		}
		if exists {
			return e.ErrDuplicateKey
		}

		row := workerToRow(worker)
		if err := tx.db.WithContext(ctx).Create(row).Error; err != nil {
			return translate(err, e.ErrDanglingReference)
		}
		*worker = *rowToWorker(row)
		return nil
	})
}

// GetWorkerYear returns the record identified by (workerID, year).
func (r *Repository) GetWorkerYear(ctx context.Context, workerID string, year int) (*models.Worker, error) {
	var row dbm.Worker
	result := r.db.WithContext(ctx).First(&row, "worker_id = ? AND year = ?", workerID, year)
	if result.Error != nil {
		return nil, translate(result.Error, e.ErrDanglingReference)
	}
	return rowToWorker(&row), nil
}

// UpdateWorker applies the non-nil fields of update to an existing record.
func (r *Repository) UpdateWorker(ctx context.Context, update *models.WorkerUpdate) (*models.Worker, error) {
	var updated *models.Worker
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		fields := map[string]interface{}{"updated_at": time.Now()}
		if update.WorkerName != nil {
			fields["worker_name"] = *update.WorkerName
		}
		if update.IntegralPerception != nil {
			fields["integral_perception"] = *update.IntegralPerception
		}
		if update.CompanyID != nil {
			fields["company_id"] = *update.CompanyID
		}
		if update.CompanyName != nil {
			fields["company_name"] = *update.CompanyName
		}

		result := tx.db.WithContext(ctx).Model(&dbm.Worker{}).
			Where("worker_id = ? AND year = ?", update.WorkerID, update.Year).
			Updates(fields)
		if result.Error != nil {
			return translate(result.Error, e.ErrDanglingReference)
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}

		w, err := tx.GetWorkerYear(ctx, update.WorkerID, update.Year)
		if err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListWorkers returns every worker record ordered by worker and year,
// restricted to one year when year is not nil.
func (r *Repository) ListWorkers(ctx context.Context, year *int) ([]models.Worker, error) {
	query := r.db.WithContext(ctx).Order("worker_id, year")
	if year != nil {
		query = query.Where("year = ?", *year)
	}

	var rows []dbm.Worker
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	workers := make([]models.Worker, 0, len(rows))
	for i := range rows {
		workers = append(workers, *rowToWorker(&rows[i]))
	}
	return workers, nil
}

// DeleteWorker removes a worker/year record. Under DeleteRestrict the delete
// fails with ErrHasDependents while contribution rows exist; under
// DeleteCascade those rows are removed in the same transaction.
// The deleted record is returned.
func (r *Repository) DeleteWorker(ctx context.Context, workerID string, year int, policy models.DeletePolicy) (*models.Worker, error) {
	var deleted *models.Worker
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		w, err := tx.GetWorkerYear(ctx, workerID, year)
		if err != nil {
			return err
		}

		dependents, err := tx.count(ctx, &dbm.ContingenciaComun{}, "worker_id = ? AND year = ?", workerID, year)
		if err != nil {
			return err
		}
		if dependents > 0 {
			if policy != models.DeleteCascade {
				return fmt.Errorf("%w: %d contribution rows", e.ErrHasDependents, dependents)
			}
			result := tx.db.WithContext(ctx).
				Where("worker_id = ? AND year = ?", workerID, year).
				Delete(&dbm.ContingenciaComun{})
			if result.Error != nil {
				return result.Error
			}
			tx.logger.Info("cascaded worker delete",
				zap.String("worker_id", workerID),
				zap.Int("year", year),
				zap.Int64("contribution_rows", result.RowsAffected),
			)
		}

		result := tx.db.WithContext(ctx).
			Where("worker_id = ? AND year = ?", workerID, year).
			Delete(&dbm.Worker{})
		if result.Error != nil {
			return translate(result.Error, e.ErrHasDependents)
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		deleted = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// checkConvenio enforces the worker → convenio year reference in hard mode.
func (r *Repository) checkConvenio(ctx context.Context, year int) error {
	if r.convenioRef == models.ReferenceSoft {
		return nil
	}
	exists, err := r.exists(ctx, &dbm.Convenio{}, "year = ?", year)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: no convenio for year %d", e.ErrDanglingReference, year)
	}
	return nil
}
