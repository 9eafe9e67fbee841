package handlers

import (
	"context"

	"github.com/gartstein/contributions/internal/contributions/models"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ContributionHandler implements ContributionServer on top of a
// ContributionController. The HTTP gateway calls the same methods, so
// both transports share validation and error mapping.
type ContributionHandler struct {
	service ContributionController
	logger  *zap.Logger
}

var _ ContributionServer = (*ContributionHandler)(nil)

func NewContributionHandler(service ContributionController, logger *zap.Logger) *ContributionHandler {
	return &ContributionHandler{
		service: service,
		logger:  logger.Named("grpc_handler"),
	}
}

func (h *ContributionHandler) CreateWorker(ctx context.Context, req *CreateWorkerRequest) (*WorkerResponse, error) {
	if req.Worker == nil {
		return nil, status.Error(codes.InvalidArgument, "worker data required")
	}
	created, err := h.service.CreateWorker(ctx, req.Worker)
	if err != nil {
		h.logger.Debug("Create worker failed", zap.Error(err))
		return nil, h.mapServiceError(err)
	}
	return &WorkerResponse{Worker: created}, nil
}

func (h *ContributionHandler) UpdateWorker(ctx context.Context, req *UpdateWorkerRequest) (*WorkerResponse, error) {
	if req.Update == nil {
		return nil, status.Error(codes.InvalidArgument, "update data required")
	}
	updated, err := h.service.UpdateWorker(ctx, req.Update)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &WorkerResponse{Worker: updated}, nil
}

func (h *ContributionHandler) GetWorkerYear(ctx context.Context, req *WorkerKeyRequest) (*WorkerResponse, error) {
	w, err := h.service.GetWorkerYear(ctx, req.WorkerID, req.Year)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &WorkerResponse{Worker: w}, nil
}

func (h *ContributionHandler) ListWorkers(ctx context.Context, req *ListWorkersRequest) (*ListWorkersResponse, error) {
	workers, err := h.service.ListWorkers(ctx, req.Year)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ListWorkersResponse{Workers: workers}, nil
}

func (h *ContributionHandler) DeleteWorker(ctx context.Context, req *DeleteWorkerRequest) (*Empty, error) {
	policy := models.DeleteRestrict
	if req.Cascade {
		policy = models.DeleteCascade
	}
	if err := h.service.DeleteWorker(ctx, req.WorkerID, req.Year, policy); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &Empty{}, nil
}

func (h *ContributionHandler) AddContingenciaComun(ctx context.Context, req *AddContingenciaComunRequest) (*ContingenciaComunResponse, error) {
	if req.Contingencia == nil {
		return nil, status.Error(codes.InvalidArgument, "contingencia data required")
	}
	added, err := h.service.AddContingenciaComun(ctx, req.Contingencia)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ContingenciaComunResponse{Contingencia: added}, nil
}

func (h *ContributionHandler) ListContingencias(ctx context.Context, req *WorkerKeyRequest) (*ListContingenciasResponse, error) {
	rows, err := h.service.ListContingencias(ctx, req.WorkerID, req.Year)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ListContingenciasResponse{Contingencias: rows}, nil
}

func (h *ContributionHandler) UpsertConvenio(ctx context.Context, req *UpsertConvenioRequest) (*ConvenioResponse, error) {
	c, err := h.service.UpsertConvenio(ctx, req.Year, req.AnnualConvenioHours)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ConvenioResponse{Convenio: c}, nil
}

func (h *ContributionHandler) GetConvenio(ctx context.Context, req *ConvenioRequest) (*ConvenioResponse, error) {
	c, err := h.service.GetConvenio(ctx, req.Year)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ConvenioResponse{Convenio: c}, nil
}

func (h *ContributionHandler) ListConvenios(ctx context.Context, _ *Empty) (*ListConveniosResponse, error) {
	convenios, err := h.service.ListConvenios(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ListConveniosResponse{Convenios: convenios}, nil
}

func (h *ContributionHandler) DeleteConvenio(ctx context.Context, req *ConvenioRequest) (*Empty, error) {
	if err := h.service.DeleteConvenio(ctx, req.Year); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &Empty{}, nil
}

func (h *ContributionHandler) UpsertCargaSocial(ctx context.Context, req *UpsertCargaSocialRequest) (*CargaSocialResponse, error) {
	c, err := h.service.UpsertCargaSocial(ctx, req.Tipo, req.Porcentaje)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CargaSocialResponse{CargaSocial: c}, nil
}

func (h *ContributionHandler) GetCargaSocial(ctx context.Context, req *CargaSocialRequest) (*CargaSocialResponse, error) {
	c, err := h.service.GetCargaSocial(ctx, req.Tipo)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &CargaSocialResponse{CargaSocial: c}, nil
}

func (h *ContributionHandler) ListCargasSociales(ctx context.Context, _ *Empty) (*ListCargasSocialesResponse, error) {
	cargas, err := h.service.ListCargasSociales(ctx)
	if err != nil {
		return nil, h.mapServiceError(err)
	}
	return &ListCargasSocialesResponse{CargasSociales: cargas}, nil
}

func (h *ContributionHandler) DeleteCargaSocial(ctx context.Context, req *CargaSocialRequest) (*Empty, error) {
	if err := h.service.DeleteCargaSocial(ctx, req.Tipo); err != nil {
		return nil, h.mapServiceError(err)
	}
	return &Empty{}, nil
}
