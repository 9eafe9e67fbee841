package db

import (
	dbm "github.com/gartstein/contributions/internal/contributions/db/models"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/gartstein/contributions/internal/contributions/period"
)

func workerToRow(w *models.Worker) *dbm.Worker {
	return &dbm.Worker{
		WorkerID:           w.WorkerID,
		Year:               w.Year,
		WorkerName:         w.WorkerName,
		IntegralPerception: w.IntegralPerception,
		CompanyID:          w.CompanyID,
		CompanyName:        w.CompanyName,
	}
}

func rowToWorker(row *dbm.Worker) *models.Worker {
	return &models.Worker{
		WorkerID:           row.WorkerID,
		Year:               row.Year,
		WorkerName:         row.WorkerName,
		IntegralPerception: row.IntegralPerception,
		CompanyID:          row.CompanyID,
		CompanyName:        row.CompanyName,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func contingenciaToRow(c *models.ContingenciaComun) *dbm.ContingenciaComun {
	order, _ := period.OrderKey(c.Period)
	return &dbm.ContingenciaComun{
		WorkerID:         c.WorkerID,
		Year:             c.Year,
		Period:           c.Period,
		PeriodOrder:      order,
		ContributionBase: c.ContributionBase,
		DaysContributed:  c.DaysContributed,
		CompanyID:        c.CompanyID,
		CompanyName:      c.CompanyName,
	}
}

func rowToContingencia(row *dbm.ContingenciaComun) models.ContingenciaComun {
	return models.ContingenciaComun{
		WorkerID:         row.WorkerID,
		Year:             row.Year,
		ContributionBase: row.ContributionBase,
		DaysContributed:  row.DaysContributed,
		Period:           row.Period,
		CompanyID:        row.CompanyID,
		CompanyName:      row.CompanyName,
		CreatedAt:        row.CreatedAt,
	}
}

func rowToConvenio(row *dbm.Convenio) *models.Convenio {
	return &models.Convenio{
		Year:                row.Year,
		AnnualConvenioHours: row.AnnualConvenioHours,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func rowToCargaSocial(row *dbm.CargaSocial) *models.CargaSocial {
	return &models.CargaSocial{
		Tipo:       row.Tipo,
		Porcentaje: row.Porcentaje,
		UpdatedAt:  row.UpdatedAt,
	}
}
