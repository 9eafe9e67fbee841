package db

import (
	"context"
	"fmt"
	"time"

	dbm "github.com/gartstein/contributions/internal/contributions/db/models"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// UpsertConvenio stores the annual hours for year, replacing any previous value.
func (r *Repository) UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error) {
	var stored *models.Convenio
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		now := time.Now()
		row := &dbm.Convenio{
			Year:                year,
			AnnualConvenioHours: hours,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		result := tx.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}},
			DoUpdates: clause.AssignmentColumns([]string{"annual_convenio_hours", "updated_at"}),
		}).Create(row)
		if result.Error != nil {
			return translate(result.Error, e.ErrDanglingReference)
		}

		c, err := tx.GetConvenio(ctx, year)
		if err != nil {
			return err
		}
		stored = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *Repository) GetConvenio(ctx context.Context, year int) (*models.Convenio, error) {
	var row dbm.Convenio
	if err := r.db.WithContext(ctx).First(&row, "year = ?", year).Error; err != nil {
		return nil, translate(err, e.ErrDanglingReference)
	}
	return rowToConvenio(&row), nil
}

func (r *Repository) ListConvenios(ctx context.Context) ([]models.Convenio, error) {
	var rows []dbm.Convenio
	if err := r.db.WithContext(ctx).Order("year").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Convenio, 0, len(rows))
	for i := range rows {
		out = append(out, *rowToConvenio(&rows[i]))
	}
	return out, nil
}

// DeleteConvenio removes the convenio row of year. It is rejected with
// ErrHasDependents while any worker record belongs to that year.
func (r *Repository) DeleteConvenio(ctx context.Context, year int) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		workers, err := tx.count(ctx, &dbm.Worker{}, "year = ?", year)
		if err != nil {
			return err
		}
		if workers > 0 {
			return fmt.Errorf("%w: %d workers recorded for %d", e.ErrHasDependents, workers, year)
		}

		result := tx.db.WithContext(ctx).Where("year = ?", year).Delete(&dbm.Convenio{})
		if result.Error != nil {
			return translate(result.Error, e.ErrHasDependents)
		}
		if result.RowsAffected == 0 {
			return e.ErrNotFound
		}
		return nil
	})
}

// UpsertCargaSocial stores the current rate of tipo. The previous rate is
// overwritten; no history is kept.
func (r *Repository) UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error) {
	row := &dbm.CargaSocial{
		Tipo:       tipo,
		Porcentaje: porcentaje,
		UpdatedAt:  time.Now(),
	}
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		result := tx.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tipo"}},
			DoUpdates: clause.AssignmentColumns([]string{"porcentaje", "updated_at"}),
		}).Create(row)
		return translate(result.Error, e.ErrDanglingReference)
	})
	if err != nil {
		return nil, err
	}
	return rowToCargaSocial(row), nil
}

func (r *Repository) GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error) {
	var row dbm.CargaSocial
	if err := r.db.WithContext(ctx).First(&row, "tipo = ?", tipo).Error; err != nil {
		return nil, translate(err, e.ErrDanglingReference)
	}
	return rowToCargaSocial(&row), nil
}

func (r *Repository) ListCargasSociales(ctx context.Context) ([]models.CargaSocial, error) {
	var rows []dbm.CargaSocial
	if err := r.db.WithContext(ctx).Order("tipo").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.CargaSocial, 0, len(rows))
	for i := range rows {
		out = append(out, *rowToCargaSocial(&rows[i]))
	}
	return out, nil
}

func (r *Repository) DeleteCargaSocial(ctx context.Context, tipo string) error {
	result := r.db.WithContext(ctx).Where("tipo = ?", tipo).Delete(&dbm.CargaSocial{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}
