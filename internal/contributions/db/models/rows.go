// Package models contains the persisted row types of the contribution data
// model, mapped with GORM onto the tables created by the migrations.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Worker is a row of the workers table. (WorkerID, Year) is the primary key.
type Worker struct {
	WorkerID           string          `gorm:"primaryKey;size:100"`
	Year               int             `gorm:"primaryKey;autoIncrement:false"`
	WorkerName         string          `gorm:"size:255;not null"`
	IntegralPerception decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CompanyID          string          `gorm:"size:100;not null"`
	CompanyName        string          `gorm:"size:255;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Worker) TableName() string { return "workers" }

// ContingenciaComun is a row of contingencias_comunes.
// (WorkerID, Year) references workers; (WorkerID, Year, Period) is the key.
type ContingenciaComun struct {
	WorkerID         string          `gorm:"primaryKey;size:100"`
	Year             int             `gorm:"primaryKey;autoIncrement:false"`
	Period           string          `gorm:"primaryKey;size:10"`
	PeriodOrder      int             `gorm:"not null"`
	ContributionBase decimal.Decimal `gorm:"type:decimal(24,4);not null"`
	DaysContributed  int             `gorm:"not null;check:days_contributed >= 0 AND days_contributed <= 366"`
	CompanyID        string          `gorm:"size:100;not null"`
	CompanyName      string          `gorm:"size:255;not null"`
	CreatedAt        time.Time
}

func (ContingenciaComun) TableName() string { return "contingencias_comunes" }

// Convenio is a row of the convenio table, one per year.
type Convenio struct {
	Year                int             `gorm:"primaryKey;autoIncrement:false"`
	AnnualConvenioHours decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Convenio) TableName() string { return "convenio" }

// CargaSocial is a row of cargas_sociales, keyed by Tipo.
type CargaSocial struct {
	Tipo       string          `gorm:"primaryKey;size:100"`
	Porcentaje decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	UpdatedAt  time.Time
}

func (CargaSocial) TableName() string { return "cargas_sociales" }
