// Package models defines the domain models of the contribution data model:
// per-worker annual payroll records, their contribution bases, the annual
// collective-agreement hours and the social-charge rates.
package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// The validate tags mirror the column definitions. The amount tag takes
// the column profile: money is NUMERIC(10,2), base is NUMERIC(24,4).

// Worker is one worker's payroll snapshot for a fiscal year.
// (WorkerID, Year) identifies the record.
type Worker struct {
	// WorkerID is the stable identifier of the physical worker.
	WorkerID string `json:"worker_id" validate:"required,max=100"`
	// Year is the fiscal year.
	Year int `json:"year" validate:"min=1900,max=9999"`
	// WorkerName is the display name, which may change between years.
	WorkerName string `json:"worker_name" validate:"max=255"`
	// IntegralPerception is the gross compensation recorded for the year.
	IntegralPerception decimal.Decimal `json:"integral_perception" validate:"amount=money"`
	CompanyID          string          `json:"company_id" validate:"required,max=100"`
	CompanyName        string          `json:"company_name" validate:"max=255"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// WorkerKey identifies a Worker record.
type WorkerKey struct {
	WorkerID string `json:"worker_id" validate:"required,max=100"`
	Year     int    `json:"year" validate:"min=1900,max=9999"`
}

// String renders the key as "worker_id/year", the form used as the
// change-event key.
func (k WorkerKey) String() string {
	return k.WorkerID + "/" + strconv.Itoa(k.Year)
}

// Key returns the identity of w.
func (w *Worker) Key() WorkerKey {
	return WorkerKey{WorkerID: w.WorkerID, Year: w.Year}
}

// WorkerUpdate carries the mutable fields of a Worker. Pointer fields allow
// partial updates; nil means unchanged.
type WorkerUpdate struct {
	WorkerID           string           `json:"worker_id" validate:"required,max=100"`
	Year               int              `json:"year" validate:"min=1900,max=9999"`
	WorkerName         *string          `json:"worker_name,omitempty" validate:"omitnil,max=255"`
	IntegralPerception *decimal.Decimal `json:"integral_perception,omitempty" validate:"omitnil,amount=money"`
	CompanyID          *string          `json:"company_id,omitempty" validate:"omitnil,required,max=100"`
	CompanyName        *string          `json:"company_name,omitempty" validate:"omitnil,max=255"`
}

// Key returns the identity of the record u changes.
func (u *WorkerUpdate) Key() WorkerKey {
	return WorkerKey{WorkerID: u.WorkerID, Year: u.Year}
}

// ContingenciaComun is the common-contingencies contribution base of a
// worker for one sub-period of a year.
type ContingenciaComun struct {
	WorkerID         string          `json:"worker_id" validate:"required,max=100"`
	Year             int             `json:"year" validate:"min=1900,max=9999"`
	ContributionBase decimal.Decimal `json:"contribution_base" validate:"amount=base"`
	DaysContributed  int             `json:"days_contributed" validate:"min=0,max=366"`
	// Period labels the sub-period, e.g. "2024-01" or "Jan".
	Period      string    `json:"period" validate:"required,max=10"`
	CompanyID   string    `json:"company_id" validate:"required,max=100"`
	CompanyName string    `json:"company_name" validate:"max=255"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key returns the identity of the worker record c belongs to.
func (c *ContingenciaComun) Key() WorkerKey {
	return WorkerKey{WorkerID: c.WorkerID, Year: c.Year}
}

// Convenio holds the annual hours negotiated in the collective agreement.
type Convenio struct {
	Year                int             `json:"year" validate:"min=1900,max=9999"`
	AnnualConvenioHours decimal.Decimal `json:"annual_convenio_hours" validate:"amount=money"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// CargaSocial is the current contribution rate of a contribution type.
// Porcentaje uses the 0-100 convention: 23.60 means 23.6%.
type CargaSocial struct {
	Tipo       string          `json:"tipo" validate:"required,max=100"`
	Porcentaje decimal.Decimal `json:"porcentaje" validate:"amount=money,percent"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DeletePolicy selects how a Worker with dependent contribution rows is deleted.
type DeletePolicy string

const (
	// DeleteRestrict rejects the delete while dependents exist.
	DeleteRestrict DeletePolicy = "RESTRICT"
	// DeleteCascade removes dependents together with the worker.
	DeleteCascade DeletePolicy = "CASCADE"
)

// ReferenceMode controls whether Worker.Year must have a Convenio row.
type ReferenceMode string

const (
	ReferenceHard ReferenceMode = "hard"
	ReferenceSoft ReferenceMode = "soft"
)
