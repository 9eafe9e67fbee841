package handlers

import (
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/shopspring/decimal"
)

// Request and response messages of contributions.v1.ContributionService.
// They travel as JSON on both the gRPC and the HTTP transport.

type CreateWorkerRequest struct {
	Worker *models.Worker `json:"worker"`
}

type UpdateWorkerRequest struct {
	Update *models.WorkerUpdate `json:"update"`
}

type WorkerKeyRequest struct {
	WorkerID string `json:"worker_id"`
	Year     int    `json:"year"`
}

type DeleteWorkerRequest struct {
	WorkerID string `json:"worker_id"`
	Year     int    `json:"year"`
	// Cascade removes the worker's contribution rows together with it.
	Cascade bool `json:"cascade,omitempty"`
}

type WorkerResponse struct {
	Worker *models.Worker `json:"worker"`
}

type ListWorkersRequest struct {
	Year *int `json:"year,omitempty"`
}

type ListWorkersResponse struct {
	Workers []models.Worker `json:"workers"`
}

type AddContingenciaComunRequest struct {
	Contingencia *models.ContingenciaComun `json:"contingencia"`
}

type ContingenciaComunResponse struct {
	Contingencia *models.ContingenciaComun `json:"contingencia"`
}

type ListContingenciasResponse struct {
	Contingencias []models.ContingenciaComun `json:"contingencias"`
}

type UpsertConvenioRequest struct {
	Year                int             `json:"year"`
	AnnualConvenioHours decimal.Decimal `json:"annual_convenio_hours"`
}

type ConvenioRequest struct {
	Year int `json:"year"`
}

type ConvenioResponse struct {
	Convenio *models.Convenio `json:"convenio"`
}

type ListConveniosResponse struct {
	Convenios []models.Convenio `json:"convenios"`
}

type UpsertCargaSocialRequest struct {
	Tipo       string          `json:"tipo"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

type CargaSocialRequest struct {
	Tipo string `json:"tipo"`
}

type CargaSocialResponse struct {
	CargaSocial *models.CargaSocial `json:"carga_social"`
}

type ListCargasSocialesResponse struct {
	CargasSociales []models.CargaSocial `json:"cargas_sociales"`
}

type Empty struct{}
