package controller

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"github.com/gartstein/contributions/internal/contributions/cache"
	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/events"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/gartstein/contributions/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	createWorker         func(context.Context, *models.Worker) error
	getWorkerYear        func(context.Context, string, int) (*models.Worker, error)
	updateWorker         func(context.Context, *models.WorkerUpdate) (*models.Worker, error)
	listWorkers          func(context.Context, *int) ([]models.Worker, error)
	deleteWorker         func(context.Context, string, int, models.DeletePolicy) (*models.Worker, error)
	addContingenciaComun func(context.Context, *models.ContingenciaComun) error
	listContingencias    func(context.Context, string, int) ([]models.ContingenciaComun, error)
	upsertConvenio       func(context.Context, int, decimal.Decimal) (*models.Convenio, error)
	getConvenio          func(context.Context, int) (*models.Convenio, error)
	listConvenios        func(context.Context) ([]models.Convenio, error)
	deleteConvenio       func(context.Context, int) error
	upsertCargaSocial    func(context.Context, string, decimal.Decimal) (*models.CargaSocial, error)
	getCargaSocial       func(context.Context, string) (*models.CargaSocial, error)
	listCargasSociales   func(context.Context) ([]models.CargaSocial, error)
	deleteCargaSocial    func(context.Context, string) error
}

func (m *MockRepository) CreateWorker(ctx context.Context, w *models.Worker) error {
	return m.createWorker(ctx, w)
}

func (m *MockRepository) GetWorkerYear(ctx context.Context, id string, year int) (*models.Worker, error) {
	return m.getWorkerYear(ctx, id, year)
}

func (m *MockRepository) UpdateWorker(ctx context.Context, u *models.WorkerUpdate) (*models.Worker, error) {
	return m.updateWorker(ctx, u)
}

func (m *MockRepository) ListWorkers(ctx context.Context, year *int) ([]models.Worker, error) {
	return m.listWorkers(ctx, year)
}

func (m *MockRepository) DeleteWorker(ctx context.Context, id string, year int, p models.DeletePolicy) (*models.Worker, error) {
	return m.deleteWorker(ctx, id, year, p)
}

func (m *MockRepository) AddContingenciaComun(ctx context.Context, c *models.ContingenciaComun) error {
	return m.addContingenciaComun(ctx, c)
}

func (m *MockRepository) ListContingencias(ctx context.Context, id string, year int) ([]models.ContingenciaComun, error) {
	return m.listContingencias(ctx, id, year)
}

func (m *MockRepository) UpsertConvenio(ctx context.Context, year int, h decimal.Decimal) (*models.Convenio, error) {
	return m.upsertConvenio(ctx, year, h)
}

func (m *MockRepository) GetConvenio(ctx context.Context, year int) (*models.Convenio, error) {
	return m.getConvenio(ctx, year)
}

func (m *MockRepository) ListConvenios(ctx context.Context) ([]models.Convenio, error) {
	return m.listConvenios(ctx)
}

func (m *MockRepository) DeleteConvenio(ctx context.Context, year int) error {
	return m.deleteConvenio(ctx, year)
}

func (m *MockRepository) UpsertCargaSocial(ctx context.Context, tipo string, p decimal.Decimal) (*models.CargaSocial, error) {
	return m.upsertCargaSocial(ctx, tipo, p)
}

func (m *MockRepository) GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error) {
	return m.getCargaSocial(ctx, tipo)
}

func (m *MockRepository) ListCargasSociales(ctx context.Context) ([]models.CargaSocial, error) {
	return m.listCargasSociales(ctx)
}

func (m *MockRepository) DeleteCargaSocial(ctx context.Context, tipo string) error {
	return m.deleteCargaSocial(ctx, tipo)
}

func (m *MockRepository) Close() error {
	return nil
}

type producedEvent struct {
	Type    events.EventType
	Key     string
	Actor   string
	Payload interface{}
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu             sync.Mutex
	producedEvents []producedEvent
}

func (m *MockProducer) Produce(eventType events.EventType, key, actor string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producedEvents = append(m.producedEvents, producedEvent{eventType, key, actor, payload})
}

func (m *MockProducer) produced() []producedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]producedEvent(nil), m.producedEvents...)
}

// memoryCache is a map-backed cache.Cache holding JSON like the valkey
// implementation. It counts hits.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return false, errors.New("cache down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Add(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	_, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return false, nil
	}
	return true, c.Set(ctx, key, value, ttl)
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

var _ cache.Cache = (*memoryCache)(nil)

func validWorker() *models.Worker {
	return &models.Worker{
		WorkerID:           "W1",
		Year:               2024,
		WorkerName:         "Ana García",
		IntegralPerception: decimal.RequireFromString("30000.00"),
		CompanyID:          "C1",
		CompanyName:        "Acme SL",
	}
}

func TestContributionService_CreateWorker(t *testing.T) {
	tests := []struct {
		name          string
		input         func() *models.Worker
		mockSetup     func(*MockRepository)
		expectedError error
	}{
		{
			name:  "successful creation",
			input: validWorker,
			mockSetup: func(mr *MockRepository) {
				mr.createWorker = func(_ context.Context, w *models.Worker) error {
					w.CreatedAt = time.Now()
					w.UpdatedAt = w.CreatedAt
					return nil
				}
			},
		},
		{
			name:  "duplicate key",
			input: validWorker,
			mockSetup: func(mr *MockRepository) {
				mr.createWorker = func(context.Context, *models.Worker) error {
					return e.ErrDuplicateKey
				}
			},
			expectedError: e.ErrDuplicateKey,
		},
		{
			name: "missing worker id",
			input: func() *models.Worker {
				w := validWorker()
				w.WorkerID = ""
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "year out of range",
			input: func() *models.Worker {
				w := validWorker()
				w.Year = 1850
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "negative perception",
			input: func() *models.Worker {
				w := validWorker()
				w.IntegralPerception = decimal.RequireFromString("-1")
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "perception needs rounding",
			input: func() *models.Worker {
				w := validWorker()
				w.IntegralPerception = decimal.RequireFromString("10.005")
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "perception too large",
			input: func() *models.Worker {
				w := validWorker()
				w.IntegralPerception = decimal.RequireFromString("100000000")
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "company name too long",
			input: func() *models.Worker {
				w := validWorker()
				w.CompanyName = strings.Repeat("x", 256)
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name: "multibyte name within column",
			input: func() *models.Worker {
				w := validWorker()
				w.WorkerName = strings.Repeat("ñá", 65)
				return w
			},
			mockSetup: func(mr *MockRepository) {
				mr.createWorker = func(context.Context, *models.Worker) error { return nil }
			},
		},
		{
			name: "multibyte name beyond column",
			input: func() *models.Worker {
				w := validWorker()
				w.WorkerName = strings.Repeat("ñ", 256)
				return w
			},
			mockSetup:     func(*MockRepository) {},
			expectedError: e.ErrInvalidInput,
		},
		{
			name:  "dangling convenio",
			input: validWorker,
			mockSetup: func(mr *MockRepository) {
				mr.createWorker = func(context.Context, *models.Worker) error {
					return e.ErrDanglingReference
				}
			},
			expectedError: e.ErrDanglingReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			mockProducer := &MockProducer{}
			tt.mockSetup(mockRepo)
			service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t))

			result, err := service.CreateWorker(context.Background(), tt.input())

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input().WorkerName, result.WorkerName)
			require.Len(t, mockProducer.produced(), 1)
			assert.Equal(t, events.WorkerCreated, mockProducer.produced()[0].Type)
			assert.Equal(t, "W1/2024", mockProducer.produced()[0].Key)
		})
	}
}

func TestContributionService_CreateWorkerRepositoryError(t *testing.T) {
	mockRepo := &MockRepository{
		createWorker: func(context.Context, *models.Worker) error {
			return errors.New("database error")
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

	_, err := service.CreateWorker(context.Background(), validWorker())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create worker")
}

func TestContributionService_UpdateWorker(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mockRepo := &MockRepository{
			updateWorker: func(context.Context, *models.WorkerUpdate) (*models.Worker, error) {
				return nil, e.ErrNotFound
			},
		}
		service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

		_, err := service.UpdateWorker(context.Background(), &models.WorkerUpdate{
			WorkerID: "W9", Year: 2024, WorkerName: utils.Ptr("X"),
		})
		assert.ErrorIs(t, err, e.ErrNotFound)
	})

	t.Run("invalid company id", func(t *testing.T) {
		service := NewContributionService(&MockRepository{}, &MockProducer{}, zaptest.NewLogger(t))

		_, err := service.UpdateWorker(context.Background(), &models.WorkerUpdate{
			WorkerID: "W1", Year: 2024, CompanyID: utils.Ptr(""),
		})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("successful update", func(t *testing.T) {
		updated := validWorker()
		updated.WorkerName = "Ana G."
		mockRepo := &MockRepository{
			updateWorker: func(_ context.Context, u *models.WorkerUpdate) (*models.Worker, error) {
				assert.Equal(t, "Ana G.", *u.WorkerName)
				return updated, nil
			},
		}
		mockProducer := &MockProducer{}
		service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t))

		result, err := service.UpdateWorker(context.Background(), &models.WorkerUpdate{
			WorkerID: "W1", Year: 2024, WorkerName: utils.Ptr("Ana G."),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana G.", result.WorkerName)
		assert.Equal(t, events.WorkerUpdated, mockProducer.produced()[0].Type)
	})
}

func TestContributionService_GetWorkerYear(t *testing.T) {
	mockRepo := &MockRepository{
		getWorkerYear: func(_ context.Context, id string, year int) (*models.Worker, error) {
			if id == "W1" && year == 2024 {
				return validWorker(), nil
			}
			return nil, e.ErrNotFound
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

	w, err := service.GetWorkerYear(context.Background(), "W1", 2024)
	require.NoError(t, err)
	assert.Equal(t, "Ana García", w.WorkerName)

	_, err = service.GetWorkerYear(context.Background(), "W1", 2023)
	assert.ErrorIs(t, err, e.ErrNotFound)

	_, err = service.GetWorkerYear(context.Background(), "", 2023)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestContributionService_DeleteWorker(t *testing.T) {
	t.Run("defaults to restrict", func(t *testing.T) {
		var got models.DeletePolicy
		mockRepo := &MockRepository{
			deleteWorker: func(_ context.Context, _ string, _ int, p models.DeletePolicy) (*models.Worker, error) {
				got = p
				return nil, e.ErrHasDependents
			},
		}
		service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

		err := service.DeleteWorker(context.Background(), "W1", 2024, "")
		assert.ErrorIs(t, err, e.ErrHasDependents)
		assert.Equal(t, models.DeleteRestrict, got)
	})

	t.Run("unknown policy", func(t *testing.T) {
		service := NewContributionService(&MockRepository{}, &MockProducer{}, zaptest.NewLogger(t))
		err := service.DeleteWorker(context.Background(), "W1", 2024, "SET NULL")
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("cascade emits event", func(t *testing.T) {
		mockRepo := &MockRepository{
			deleteWorker: func(context.Context, string, int, models.DeletePolicy) (*models.Worker, error) {
				return validWorker(), nil
			},
		}
		mockProducer := &MockProducer{}
		service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t))

		require.NoError(t, service.DeleteWorker(context.Background(), "W1", 2024, models.DeleteCascade))
		assert.Equal(t, events.WorkerDeleted, mockProducer.produced()[0].Type)
	})
}

func TestContributionService_AddContingenciaComun(t *testing.T) {
	valid := func() *models.ContingenciaComun {
		return &models.ContingenciaComun{
			WorkerID:         "W1",
			Year:             2024,
			ContributionBase: decimal.RequireFromString("2500.1234"),
			DaysContributed:  31,
			Period:           "Jan",
			CompanyID:        "C1",
		}
	}

	tests := []struct {
		name          string
		mutate        func(*models.ContingenciaComun)
		repoErr       error
		expectedError error
	}{
		{name: "valid", mutate: func(*models.ContingenciaComun) {}},
		{name: "dangling worker", mutate: func(*models.ContingenciaComun) {}, repoErr: e.ErrDanglingReference, expectedError: e.ErrDanglingReference},
		{name: "duplicate period", mutate: func(*models.ContingenciaComun) {}, repoErr: e.ErrDuplicateKey, expectedError: e.ErrDuplicateKey},
		{name: "empty period", mutate: func(c *models.ContingenciaComun) { c.Period = "" }, expectedError: e.ErrInvalidInput},
		{name: "long period", mutate: func(c *models.ContingenciaComun) { c.Period = "January-2024" }, expectedError: e.ErrInvalidInput},
		{name: "days above 366", mutate: func(c *models.ContingenciaComun) { c.DaysContributed = 367 }, expectedError: e.ErrInvalidInput},
		{name: "negative days", mutate: func(c *models.ContingenciaComun) { c.DaysContributed = -1 }, expectedError: e.ErrInvalidInput},
		{name: "base scale", mutate: func(c *models.ContingenciaComun) { c.ContributionBase = decimal.RequireFromString("1.00001") }, expectedError: e.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{
				addContingenciaComun: func(context.Context, *models.ContingenciaComun) error {
					return tt.repoErr
				},
			}
			mockProducer := &MockProducer{}
			service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t))

			c := valid()
			tt.mutate(c)
			result, err := service.AddContingenciaComun(context.Background(), c)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Jan", result.Period)
			assert.Equal(t, "W1/2024/Jan", mockProducer.produced()[0].Key)
		})
	}
}

func TestContributionService_ListContingenciasEmpty(t *testing.T) {
	mockRepo := &MockRepository{
		listContingencias: func(context.Context, string, int) ([]models.ContingenciaComun, error) {
			return []models.ContingenciaComun{}, nil
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

	rows, err := service.ListContingencias(context.Background(), "W1", 2024)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestContributionService_ConvenioCache(t *testing.T) {
	repoCalls := 0
	hours := decimal.RequireFromString("1800.00")
	mockRepo := &MockRepository{
		getConvenio: func(_ context.Context, year int) (*models.Convenio, error) {
			repoCalls++
			return &models.Convenio{Year: year, AnnualConvenioHours: hours}, nil
		},
		upsertConvenio: func(_ context.Context, year int, h decimal.Decimal) (*models.Convenio, error) {
			hours = h
			return &models.Convenio{Year: year, AnnualConvenioHours: h}, nil
		},
	}
	mc := newMemoryCache()
	mockProducer := &MockProducer{}
	service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t), WithCache(mc, time.Minute))
	ctx := context.Background()

	_, err := service.GetConvenio(ctx, 2024)
	require.NoError(t, err)
	c, err := service.GetConvenio(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, repoCalls)
	assert.Equal(t, 1, mc.hits)
	assert.True(t, c.AnnualConvenioHours.Equal(decimal.RequireFromString("1800")))

	_, err = service.UpsertConvenio(ctx, 2024, decimal.RequireFromString("1750.50"))
	require.NoError(t, err)

	c, err = service.GetConvenio(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, repoCalls)
	assert.True(t, c.AnnualConvenioHours.Equal(decimal.RequireFromString("1750.5")))
}

func TestContributionService_CacheFailureFallsBackToRepository(t *testing.T) {
	mockRepo := &MockRepository{
		getCargaSocial: func(_ context.Context, tipo string) (*models.CargaSocial, error) {
			return &models.CargaSocial{Tipo: tipo, Porcentaje: decimal.RequireFromString("0.80")}, nil
		},
	}
	mc := newMemoryCache()
	mc.failGet = true
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t), WithCache(mc, 0))

	c, err := service.GetCargaSocial(context.Background(), "FOGASA")
	require.NoError(t, err)
	assert.Equal(t, "FOGASA", c.Tipo)
}

func TestContributionService_UpsertCargaSocial(t *testing.T) {
	tests := []struct {
		name       string
		tipo       string
		porcentaje string
		wantErr    error
	}{
		{name: "valid", tipo: "Contingencias comunes", porcentaje: "23.60"},
		{name: "zero", tipo: "IT", porcentaje: "0"},
		{name: "hundred", tipo: "IT", porcentaje: "100"},
		{name: "above hundred", tipo: "IT", porcentaje: "100.01", wantErr: e.ErrInvalidInput},
		{name: "negative", tipo: "IT", porcentaje: "-0.01", wantErr: e.ErrInvalidInput},
		{name: "three decimals", tipo: "IT", porcentaje: "1.505", wantErr: e.ErrInvalidInput},
		{name: "empty tipo", tipo: "", porcentaje: "1", wantErr: e.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{
				upsertCargaSocial: func(_ context.Context, tipo string, p decimal.Decimal) (*models.CargaSocial, error) {
					return &models.CargaSocial{Tipo: tipo, Porcentaje: p}, nil
				},
			}
			mockProducer := &MockProducer{}
			mc := newMemoryCache()
			require.NoError(t, mc.Set(context.Background(), cache.CargaSocialKey(tt.tipo), &models.CargaSocial{Tipo: tt.tipo}, 0))
			service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t), WithCache(mc, time.Minute))

			_, err := service.UpsertCargaSocial(context.Background(), tt.tipo, decimal.RequireFromString(tt.porcentaje))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, mc.entries, cache.CargaSocialKey(tt.tipo))
				return
			}
			require.NoError(t, err)
			var cached models.CargaSocial
			hit, err := mc.Get(context.Background(), cache.CargaSocialKey(tt.tipo), &cached)
			require.NoError(t, err)
			assert.True(t, hit)
			assert.True(t, cached.Porcentaje.Equal(decimal.RequireFromString(tt.porcentaje)))
			assert.Equal(t, events.CargaSocialUpserted, mockProducer.produced()[0].Type)
		})
	}
}

func TestContributionService_DeleteConvenio(t *testing.T) {
	mockRepo := &MockRepository{
		deleteConvenio: func(context.Context, int) error {
			return e.ErrHasDependents
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

	err := service.DeleteConvenio(context.Background(), 2024)
	assert.ErrorIs(t, err, e.ErrHasDependents)
}

func TestContributionService_ListWorkersInvalidYear(t *testing.T) {
	service := NewContributionService(&MockRepository{}, &MockProducer{}, zaptest.NewLogger(t))
	_, err := service.ListWorkers(context.Background(), utils.Ptr(12))
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

// blockingRead makes the first call of a repository read wait until
// release is closed, after signalling on started.
type blockingRead struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newBlockingRead() *blockingRead {
	return &blockingRead{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingRead) wait() {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
}

func TestContributionService_ConvenioReadRacingUpsert(t *testing.T) {
	var mu sync.Mutex
	hours := decimal.RequireFromString("1800.00")
	read := newBlockingRead()
	mockRepo := &MockRepository{
		getConvenio: func(_ context.Context, year int) (*models.Convenio, error) {
			mu.Lock()
			loaded := hours
			mu.Unlock()
			read.wait()
			return &models.Convenio{Year: year, AnnualConvenioHours: loaded}, nil
		},
		upsertConvenio: func(_ context.Context, year int, h decimal.Decimal) (*models.Convenio, error) {
			mu.Lock()
			hours = h
			mu.Unlock()
			return &models.Convenio{Year: year, AnnualConvenioHours: h}, nil
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t), WithCache(newMemoryCache(), time.Minute))
	ctx := context.Background()

	slow := make(chan *models.Convenio)
	go func() {
		c, err := service.GetConvenio(ctx, 2024)
		assert.NoError(t, err)
		slow <- c
	}()
	<-read.started

	_, err := service.UpsertConvenio(ctx, 2024, decimal.RequireFromString("1820.00"))
	require.NoError(t, err)
	close(read.release)
	assert.True(t, (<-slow).AnnualConvenioHours.Equal(decimal.NewFromInt(1800)))

	c, err := service.GetConvenio(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, c.AnnualConvenioHours.Equal(decimal.NewFromInt(1820)), "got %s", c.AnnualConvenioHours)
}

func TestContributionService_CargaSocialReadRacingDelete(t *testing.T) {
	var mu sync.Mutex
	deleted := false
	read := newBlockingRead()
	mockRepo := &MockRepository{
		getCargaSocial: func(_ context.Context, tipo string) (*models.CargaSocial, error) {
			mu.Lock()
			gone := deleted
			mu.Unlock()
			if gone {
				return nil, e.ErrNotFound
			}
			read.wait()
			return &models.CargaSocial{Tipo: tipo, Porcentaje: decimal.RequireFromString("1.50")}, nil
		},
		deleteCargaSocial: func(context.Context, string) error {
			mu.Lock()
			deleted = true
			mu.Unlock()
			return nil
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t), WithCache(newMemoryCache(), time.Minute))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := service.GetCargaSocial(ctx, "IT")
		assert.NoError(t, err)
	}()
	<-read.started

	require.NoError(t, service.DeleteCargaSocial(ctx, "IT"))
	close(read.release)
	<-done

	_, err := service.GetCargaSocial(ctx, "IT")
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestContributionService_EventsCarryActor(t *testing.T) {
	mockRepo := &MockRepository{
		upsertConvenio: func(_ context.Context, year int, h decimal.Decimal) (*models.Convenio, error) {
			return &models.Convenio{Year: year, AnnualConvenioHours: h}, nil
		},
	}
	mockProducer := &MockProducer{}
	service := NewContributionService(mockRepo, mockProducer, zaptest.NewLogger(t))

	ctx := auth.WithSubject(context.Background(), "payroll-import")
	_, err := service.UpsertConvenio(ctx, 2024, decimal.NewFromInt(1800))
	require.NoError(t, err)
	_, err = service.UpsertConvenio(context.Background(), 2025, decimal.NewFromInt(1790))
	require.NoError(t, err)

	produced := mockProducer.produced()
	require.Len(t, produced, 2)
	assert.Equal(t, "2024", produced[0].Key)
	assert.Equal(t, "payroll-import", produced[0].Actor)
	assert.Empty(t, produced[1].Actor)
}

func TestContributionService_ListContingenciasOrder(t *testing.T) {
	rows := func(periods ...string) []models.ContingenciaComun {
		out := make([]models.ContingenciaComun, 0, len(periods))
		for _, p := range periods {
			out = append(out, models.ContingenciaComun{WorkerID: "W1", Year: 2024, Period: p})
		}
		return out
	}
	mockRepo := &MockRepository{
		listContingencias: func(context.Context, string, int) ([]models.ContingenciaComun, error) {
			// Case-insensitive collation order of the unrecognised labels.
			return rows("Feb", "Jan", "alpha", "Beta"), nil
		},
	}
	service := NewContributionService(mockRepo, &MockProducer{}, zaptest.NewLogger(t))

	got, err := service.ListContingencias(context.Background(), "W1", 2024)
	require.NoError(t, err)

	var periods []string
	for _, r := range got {
		periods = append(periods, r.Period)
	}
	assert.Equal(t, []string{"Jan", "Feb", "Beta", "alpha"}, periods)
}
