package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// gateway exposes ContributionHandler over HTTP/JSON. Routes are registered
// on a grpc-gateway ServeMux so path templates and error rendering follow
// the usual gRPC-to-HTTP mapping.
type gateway struct {
	h      *ContributionHandler
	mux    *runtime.ServeMux
	logger *zap.Logger
}

type route struct {
	method  string
	pattern string
	fn      runtime.HandlerFunc
}

func newGateway(h *ContributionHandler, logger *zap.Logger, extra ...route) (*runtime.ServeMux, error) {
	g := &gateway{
		h:      h,
		mux:    runtime.NewServeMux(),
		logger: logger.Named("http_gateway"),
	}

	routes := []route{
		{http.MethodPost, "/v1/workers", g.createWorker},
		{http.MethodGet, "/v1/workers", g.listWorkers},
		{http.MethodGet, "/v1/workers/{worker_id}/years/{year}", g.getWorkerYear},
		{http.MethodPatch, "/v1/workers/{worker_id}/years/{year}", g.updateWorker},
		{http.MethodDelete, "/v1/workers/{worker_id}/years/{year}", g.deleteWorker},
		{http.MethodPost, "/v1/workers/{worker_id}/years/{year}/contingencias", g.addContingencia},
		{http.MethodGet, "/v1/workers/{worker_id}/years/{year}/contingencias", g.listContingencias},
		{http.MethodGet, "/v1/convenios", g.listConvenios},
		{http.MethodPut, "/v1/convenios/{year}", g.upsertConvenio},
		{http.MethodGet, "/v1/convenios/{year}", g.getConvenio},
		{http.MethodDelete, "/v1/convenios/{year}", g.deleteConvenio},
		{http.MethodGet, "/v1/cargas-sociales", g.listCargasSociales},
		{http.MethodPut, "/v1/cargas-sociales/{tipo}", g.upsertCargaSocial},
		{http.MethodGet, "/v1/cargas-sociales/{tipo}", g.getCargaSocial},
		{http.MethodDelete, "/v1/cargas-sociales/{tipo}", g.deleteCargaSocial},
	}
	for _, rt := range append(routes, extra...) {
		if err := g.mux.HandlePath(rt.method, rt.pattern, rt.fn); err != nil {
			return nil, err
		}
	}
	return g.mux, nil
}

func (g *gateway) respond(w http.ResponseWriter, r *http.Request, resp interface{}, err error) {
	if err != nil {
		_, outbound := runtime.MarshalerForRequest(g.mux, r)
		runtime.HTTPError(r.Context(), g.mux, outbound, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (g *gateway) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request body: %v", err)
	}
	return nil
}

func workerKeyFromPath(params map[string]string) (string, int, error) {
	year, err := yearParam(params["year"])
	return params["worker_id"], year, err
}

func yearParam(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, status.Errorf(codes.InvalidArgument, "invalid year %q", raw)
	}
	return year, nil
}

func (g *gateway) createWorker(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &CreateWorkerRequest{}
	if err := g.decode(r, &req.Worker); err != nil {
		g.respond(w, r, nil, err)
		return
	}
	resp, err := g.h.CreateWorker(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) listWorkers(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	req := &ListWorkersRequest{}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := yearParam(raw)
		if err != nil {
			g.respond(w, r, nil, err)
			return
		}
		req.Year = &year
	}
	resp, err := g.h.ListWorkers(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) getWorkerYear(w http.ResponseWriter, r *http.Request, params map[string]string) {
	workerID, year, err := workerKeyFromPath(params)
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	resp, err := g.h.GetWorkerYear(r.Context(), &WorkerKeyRequest{WorkerID: workerID, Year: year})
	g.respond(w, r, resp, err)
}

func (g *gateway) updateWorker(w http.ResponseWriter, r *http.Request, params map[string]string) {
	workerID, year, err := workerKeyFromPath(params)
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req := &UpdateWorkerRequest{}
	if err := g.decode(r, &req.Update); err != nil {
		g.respond(w, r, nil, err)
		return
	}
	if req.Update != nil {
		req.Update.WorkerID = workerID
		req.Update.Year = year
	}
	resp, err := g.h.UpdateWorker(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) deleteWorker(w http.ResponseWriter, r *http.Request, params map[string]string) {
	workerID, year, err := workerKeyFromPath(params)
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req := &DeleteWorkerRequest{WorkerID: workerID, Year: year}
	if raw := r.URL.Query().Get("cascade"); raw != "" {
		cascade, err := strconv.ParseBool(raw)
		if err != nil {
			g.respond(w, r, nil, status.Errorf(codes.InvalidArgument, "invalid cascade %q", raw))
			return
		}
		req.Cascade = cascade
	}
	resp, err := g.h.DeleteWorker(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) addContingencia(w http.ResponseWriter, r *http.Request, params map[string]string) {
	workerID, year, err := workerKeyFromPath(params)
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req := &AddContingenciaComunRequest{}
	if err := g.decode(r, &req.Contingencia); err != nil {
		g.respond(w, r, nil, err)
		return
	}
	if req.Contingencia != nil {
		req.Contingencia.WorkerID = workerID
		req.Contingencia.Year = year
	}
	resp, err := g.h.AddContingenciaComun(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) listContingencias(w http.ResponseWriter, r *http.Request, params map[string]string) {
	workerID, year, err := workerKeyFromPath(params)
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	resp, err := g.h.ListContingencias(r.Context(), &WorkerKeyRequest{WorkerID: workerID, Year: year})
	g.respond(w, r, resp, err)
}

func (g *gateway) listConvenios(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.h.ListConvenios(r.Context(), &Empty{})
	g.respond(w, r, resp, err)
}

func (g *gateway) upsertConvenio(w http.ResponseWriter, r *http.Request, params map[string]string) {
	year, err := yearParam(params["year"])
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req := &UpsertConvenioRequest{}
	if err := g.decode(r, req); err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req.Year = year
	resp, err := g.h.UpsertConvenio(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) getConvenio(w http.ResponseWriter, r *http.Request, params map[string]string) {
	year, err := yearParam(params["year"])
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	resp, err := g.h.GetConvenio(r.Context(), &ConvenioRequest{Year: year})
	g.respond(w, r, resp, err)
}

func (g *gateway) deleteConvenio(w http.ResponseWriter, r *http.Request, params map[string]string) {
	year, err := yearParam(params["year"])
	if err != nil {
		g.respond(w, r, nil, err)
		return
	}
	resp, err := g.h.DeleteConvenio(r.Context(), &ConvenioRequest{Year: year})
	g.respond(w, r, resp, err)
}

func (g *gateway) listCargasSociales(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := g.h.ListCargasSociales(r.Context(), &Empty{})
	g.respond(w, r, resp, err)
}

func (g *gateway) upsertCargaSocial(w http.ResponseWriter, r *http.Request, params map[string]string) {
	req := &UpsertCargaSocialRequest{}
	if err := g.decode(r, req); err != nil {
		g.respond(w, r, nil, err)
		return
	}
	req.Tipo = params["tipo"]
	resp, err := g.h.UpsertCargaSocial(r.Context(), req)
	g.respond(w, r, resp, err)
}

func (g *gateway) getCargaSocial(w http.ResponseWriter, r *http.Request, params map[string]string) {
	resp, err := g.h.GetCargaSocial(r.Context(), &CargaSocialRequest{Tipo: params["tipo"]})
	g.respond(w, r, resp, err)
}

func (g *gateway) deleteCargaSocial(w http.ResponseWriter, r *http.Request, params map[string]string) {
	resp, err := g.h.DeleteCargaSocial(r.Context(), &CargaSocialRequest{Tipo: params["tipo"]})
	g.respond(w, r, resp, err)
}
