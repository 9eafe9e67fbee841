package controller

import (
	"strings"
	"testing"

	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/gartstein/contributions/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantMsg string
	}{
		{
			name:  "valid key",
			input: models.WorkerKey{WorkerID: "W1", Year: 2024},
		},
		{
			name:    "empty key",
			input:   models.WorkerKey{Year: 2024},
			wantMsg: "worker_id is required",
		},
		{
			name:    "year below range",
			input:   models.WorkerKey{WorkerID: "W1", Year: 1899},
			wantMsg: "year 1899 below 1900",
		},
		{
			name:    "id counted in characters",
			input:   models.WorkerKey{WorkerID: strings.Repeat("é", 101), Year: 2024},
			wantMsg: "worker_id longer than 100 characters",
		},
		{
			name:  "id at limit in characters",
			input: models.WorkerKey{WorkerID: strings.Repeat("é", 100), Year: 2024},
		},
		{
			name:    "base with five decimals",
			input:   &models.ContingenciaComun{WorkerID: "W1", Year: 2024, Period: "Jan", CompanyID: "C1", ContributionBase: decimal.RequireFromString("1.00001")},
			wantMsg: "contribution_base 1.00001 must be non-negative with at most 20 integer digits and 4 decimal places",
		},
		{
			name:  "base with four decimals",
			input: &models.ContingenciaComun{WorkerID: "W1", Year: 2024, Period: "Jan", CompanyID: "C1", ContributionBase: decimal.RequireFromString("1.0001")},
		},
		{
			name:    "rate above hundred",
			input:   &models.CargaSocial{Tipo: "IT", Porcentaje: decimal.RequireFromString("100.50")},
			wantMsg: "porcentaje 100.5 outside 0..100",
		},
		{
			name:  "unchanged update fields",
			input: &models.WorkerUpdate{WorkerID: "W1", Year: 2024},
		},
		{
			name:    "update perception needs rounding",
			input:   &models.WorkerUpdate{WorkerID: "W1", Year: 2024, IntegralPerception: utils.Ptr(decimal.RequireFromString("0.001"))},
			wantMsg: "integral_perception",
		},
		{
			name:    "several violations",
			input:   &models.Convenio{Year: 10000, AnnualConvenioHours: decimal.RequireFromString("-1")},
			wantMsg: "year 10000 above 9999; annual_convenio_hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(tt.input)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, e.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
