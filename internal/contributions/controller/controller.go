// Package controller implements the service layer of the contribution data
// model: input validation, repository orchestration, reference cache
// maintenance and change-event production.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"github.com/gartstein/contributions/internal/contributions/cache"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/events"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/gartstein/contributions/internal/contributions/period"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultCacheTTL = 10 * time.Minute

// EventProducer queues change events. Produce must not block.
type EventProducer interface {
	Produce(eventType events.EventType, key, actor string, payload interface{})
}

// Repository defines the storage interface of the contribution data model.
type Repository interface {
	CreateWorker(ctx context.Context, worker *models.Worker) error
	GetWorkerYear(ctx context.Context, workerID string, year int) (*models.Worker, error)
	UpdateWorker(ctx context.Context, update *models.WorkerUpdate) (*models.Worker, error)
	ListWorkers(ctx context.Context, year *int) ([]models.Worker, error)
	DeleteWorker(ctx context.Context, workerID string, year int, policy models.DeletePolicy) (*models.Worker, error)

	AddContingenciaComun(ctx context.Context, c *models.ContingenciaComun) error
	ListContingencias(ctx context.Context, workerID string, year int) ([]models.ContingenciaComun, error)

	UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error)
	GetConvenio(ctx context.Context, year int) (*models.Convenio, error)
	ListConvenios(ctx context.Context) ([]models.Convenio, error)
	DeleteConvenio(ctx context.Context, year int) error

	UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error)
	GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error)
	ListCargasSociales(ctx context.Context) ([]models.CargaSocial, error)
	DeleteCargaSocial(ctx context.Context, tipo string) error

	Close() error
}

type Option func(*ContributionService)

// WithCache enables read-through caching of convenio and carga social lookups.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *ContributionService) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// ContributionService exposes the operations of the contribution data model.
type ContributionService struct {
	repo     Repository
	producer EventProducer
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewContributionService(repo Repository, producer EventProducer, logger *zap.Logger, opts ...Option) *ContributionService {
	s := &ContributionService{
		repo:     repo,
		producer: producer,
		cache:    cache.Nop{},
		cacheTTL: defaultCacheTTL,
		logger:   logger.Named("contribution_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wrap adds context to unexpected errors and passes domain errors through
// unchanged.
func wrap(op string, err error) error {
	for _, sentinel := range []error{
		e.ErrNotFound, e.ErrDuplicateKey, e.ErrInvalidInput,
		e.ErrDanglingReference, e.ErrHasDependents,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// emit queues the change event of a committed write, attributed to the
// authenticated caller of ctx. It runs before the write returns so that a
// producer closed after the last request still flushes its event.
func (s *ContributionService) emit(ctx context.Context, eventType events.EventType, key string, payload interface{}) {
	actor, _ := auth.Subject(ctx)
	s.producer.Produce(eventType, key, actor, payload)
}

// publish overwrites the cache entry of key with a committed value. A nil
// value records a deletion, so lookups fall through to the database and
// concurrent readers cannot repopulate the entry with the deleted row.
// Failures are logged; entries expire after the TTL anyway.
func (s *ContributionService) publish(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to publish cache entry", zap.String("key", key), zap.Error(err))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to invalidate cache entry", zap.String("key", key), zap.Error(err))
		}
	}
}

// CreateWorker inserts a new worker/year record. It fails with
// ErrDuplicateKey when the record already exists.
func (s *ContributionService) CreateWorker(ctx context.Context, worker *models.Worker) (*models.Worker, error) {
	if err := check(worker); err != nil {
		return nil, err
	}
	if err := s.repo.CreateWorker(ctx, worker); err != nil {
		return nil, wrap("create worker", err)
	}

	created := *worker
	s.emit(ctx, events.WorkerCreated, created.Key().String(), &created)
	return &created, nil
}

// UpdateWorker changes the mutable fields of an existing record. It fails
// with ErrNotFound when the record does not exist.
func (s *ContributionService) UpdateWorker(ctx context.Context, update *models.WorkerUpdate) (*models.Worker, error) {
	if err := check(update); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateWorker(ctx, update)
	if err != nil {
		return nil, wrap("update worker", err)
	}
	s.emit(ctx, events.WorkerUpdated, updated.Key().String(), updated)
	return updated, nil
}

func (s *ContributionService) GetWorkerYear(ctx context.Context, workerID string, year int) (*models.Worker, error) {
	if err := validateKey(workerID, year); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWorkerYear(ctx, workerID, year)
	if err != nil {
		return nil, wrap("get worker", err)
	}
	return w, nil
}

func (s *ContributionService) ListWorkers(ctx context.Context, year *int) ([]models.Worker, error) {
	if year != nil {
		if err := validateYear(*year); err != nil {
			return nil, err
		}
	}
	workers, err := s.repo.ListWorkers(ctx, year)
	if err != nil {
		return nil, wrap("list workers", err)
	}
	return workers, nil
}

// DeleteWorker removes a worker/year record according to policy.
func (s *ContributionService) DeleteWorker(ctx context.Context, workerID string, year int, policy models.DeletePolicy) error {
	if err := validateKey(workerID, year); err != nil {
		return err
	}
	switch policy {
	case "":
		policy = models.DeleteRestrict
	case models.DeleteRestrict, models.DeleteCascade:
	default:
		return invalid("unknown delete policy %q", policy)
	}

	deleted, err := s.repo.DeleteWorker(ctx, workerID, year, policy)
	if err != nil {
		return wrap("delete worker", err)
	}
	s.logger.Info("Worker record deleted",
		zap.String("worker_id", workerID),
		zap.Int("year", year),
		zap.String("policy", string(policy)),
	)
	s.emit(ctx, events.WorkerDeleted, models.WorkerKey{WorkerID: workerID, Year: year}.String(), deleted)
	return nil
}

// AddContingenciaComun records a contribution base for an existing
// worker/year.
func (s *ContributionService) AddContingenciaComun(ctx context.Context, c *models.ContingenciaComun) (*models.ContingenciaComun, error) {
	if err := check(c); err != nil {
		return nil, err
	}
	if err := s.repo.AddContingenciaComun(ctx, c); err != nil {
		return nil, wrap("add contingencia comun", err)
	}

	added := *c
	s.emit(ctx, events.ContingenciaAdded, added.Key().String()+"/"+added.Period, &added)
	return &added, nil
}

// ListContingencias returns the contribution bases of a worker/year ordered
// by period. A worker/year without rows yields an empty slice.
//
// The database orders by the stored period key; the final sort applies the
// same key and breaks ties by byte order, which database collations do not
// agree on.
func (s *ContributionService) ListContingencias(ctx context.Context, workerID string, year int) ([]models.ContingenciaComun, error) {
	if err := validateKey(workerID, year); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListContingencias(ctx, workerID, year)
	if err != nil {
		return nil, wrap("list contingencias", err)
	}
	slices.SortStableFunc(rows, func(a, b models.ContingenciaComun) int {
		return period.Compare(a.Period, b.Period)
	})
	return rows, nil
}

// UpsertConvenio sets the annual convenio hours of year, replacing any
// previous value.
func (s *ContributionService) UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error) {
	if err := validateConvenio(year, hours); err != nil {
		return nil, err
	}

	c, err := s.repo.UpsertConvenio(ctx, year, hours)
	if err != nil {
		return nil, wrap("upsert convenio", err)
	}
	s.publish(ctx, cache.ConvenioKey(year), c)
	s.emit(ctx, events.ConvenioUpserted, strconv.Itoa(year), c)
	return c, nil
}

func (s *ContributionService) GetConvenio(ctx context.Context, year int) (*models.Convenio, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}

	key := cache.ConvenioKey(year)
	var cached *models.Convenio
	if s.lookup(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	c, err := s.repo.GetConvenio(ctx, year)
	if err != nil {
		return nil, wrap("get convenio", err)
	}
	s.fill(ctx, key, c)
	return c, nil
}

func (s *ContributionService) ListConvenios(ctx context.Context) ([]models.Convenio, error) {
	convenios, err := s.repo.ListConvenios(ctx)
	if err != nil {
		return nil, wrap("list convenios", err)
	}
	return convenios, nil
}

// DeleteConvenio removes the convenio of year. It fails with
// ErrHasDependents while worker records exist for that year.
func (s *ContributionService) DeleteConvenio(ctx context.Context, year int) error {
	if err := validateYear(year); err != nil {
		return err
	}
	if err := s.repo.DeleteConvenio(ctx, year); err != nil {
		return wrap("delete convenio", err)
	}
	s.publish(ctx, cache.ConvenioKey(year), nil)
	s.emit(ctx, events.ConvenioDeleted, strconv.Itoa(year), map[string]int{"year": year})
	return nil
}

// UpsertCargaSocial sets the current rate of tipo. Previous rates are not kept.
func (s *ContributionService) UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error) {
	if err := validateCargaSocial(tipo, porcentaje); err != nil {
		return nil, err
	}

	c, err := s.repo.UpsertCargaSocial(ctx, tipo, porcentaje)
	if err != nil {
		return nil, wrap("upsert carga social", err)
	}
	s.publish(ctx, cache.CargaSocialKey(tipo), c)
	s.emit(ctx, events.CargaSocialUpserted, tipo, c)
	return c, nil
}

func (s *ContributionService) GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error) {
	if err := validateTipo(tipo); err != nil {
		return nil, err
	}

	key := cache.CargaSocialKey(tipo)
	var cached *models.CargaSocial
	if s.lookup(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	c, err := s.repo.GetCargaSocial(ctx, tipo)
	if err != nil {
		return nil, wrap("get carga social", err)
	}
	s.fill(ctx, key, c)
	return c, nil
}

func (s *ContributionService) ListCargasSociales(ctx context.Context) ([]models.CargaSocial, error) {
	cargas, err := s.repo.ListCargasSociales(ctx)
	if err != nil {
		return nil, wrap("list cargas sociales", err)
	}
	return cargas, nil
}

func (s *ContributionService) DeleteCargaSocial(ctx context.Context, tipo string) error {
	if err := validateTipo(tipo); err != nil {
		return err
	}
	if err := s.repo.DeleteCargaSocial(ctx, tipo); err != nil {
		return wrap("delete carga social", err)
	}
	s.publish(ctx, cache.CargaSocialKey(tipo), nil)
	s.emit(ctx, events.CargaSocialDeleted, tipo, map[string]string{"tipo": tipo})
	return nil
}

func (s *ContributionService) lookup(ctx context.Context, key string, dst interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

// fill caches a value read from the database unless the key is already
// set, so a read that raced with a write never replaces the written value.
func (s *ContributionService) fill(ctx context.Context, key string, value interface{}) {
	if _, err := s.cache.Add(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the repository.
func (s *ContributionService) Close() error {
	return s.repo.Close()
}
