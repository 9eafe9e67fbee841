package main

import (
	"context"

	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/handlers"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// clientTarget adapts the gRPC client to seed.Target.
type clientTarget struct {
	client *handlers.Client
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return e.ErrNotFound
	}
	return err
}

func (c *clientTarget) UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error) {
	resp, err := c.client.UpsertConvenio(ctx, &handlers.UpsertConvenioRequest{Year: year, AnnualConvenioHours: hours})
	if err != nil {
		return nil, err
	}
	return resp.Convenio, nil
}

func (c *clientTarget) GetConvenio(ctx context.Context, year int) (*models.Convenio, error) {
	resp, err := c.client.GetConvenio(ctx, &handlers.ConvenioRequest{Year: year})
	if err != nil {
		return nil, notFound(err)
	}
	return resp.Convenio, nil
}

func (c *clientTarget) UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error) {
	resp, err := c.client.UpsertCargaSocial(ctx, &handlers.UpsertCargaSocialRequest{Tipo: tipo, Porcentaje: porcentaje})
	if err != nil {
		return nil, err
	}
	return resp.CargaSocial, nil
}

func (c *clientTarget) GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error) {
	resp, err := c.client.GetCargaSocial(ctx, &handlers.CargaSocialRequest{Tipo: tipo})
	if err != nil {
		return nil, notFound(err)
	}
	return resp.CargaSocial, nil
}
