//go:build integration

package worker

// Run with: go test -tags integration ./internal/worker/...

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ferrepos/internal/dto"
	"ferrepos/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func redisDePrueba(t *testing.T) redis.UniversalClient {
	t.Helper()
	ctx := context.Background()
	c, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	url, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

type handlerFunc func(context.Context, Job) error

func (f handlerFunc) Process(ctx context.Context, j Job) error { return f(ctx, j) }

func TestDispatcher_PoolProcesa(t *testing.T) {
	rdb := redisDePrueba(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var tipos []string
	listo := make(chan struct{}, 2)
	StartWorkerPool(ctx, rdb, 1, 3, handlerFunc(func(_ context.Context, j Job) error {
		mu.Lock()
		tipos = append(tipos, j.Type)
		mu.Unlock()
		listo <- struct{}{}
		return nil
	}))

	d := NewDispatcher(rdb)
	require.NoError(t, d.NotificarDescuadre(ctx, dto.EventoDescuadre{SesionCajaID: "s1", Descuadre: decimal.NewFromInt(-5)}))
	require.NoError(t, d.PublicarAuditoria(ctx, dto.EventoCierreAdministrativo{SesionCajaID: "s1"}))

	for i := 0; i < 2; i++ {
		select {
		case <-listo:
		case <-time.After(10 * time.Second):
			t.Fatal("job not processed")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{JobDescuadre, JobCierreAdministrativo}, tipos)
}

func TestProcessJob_AgotaIntentosYVaADLQ(t *testing.T) {
	rdb := redisDePrueba(t)
	ctx := context.Background()
	fallar := handlerFunc(func(context.Context, Job) error { return errors.New("smtp down") })

	require.NoError(t, NewDispatcher(rdb).NotificarDescuadre(ctx, dto.EventoDescuadre{SesionCajaID: "s2"}))

	for i := 0; i < 2; i++ {
		raw, err := rdb.RPop(ctx, QueueNotificaciones).Result()
		require.NoError(t, err)
		processJob(ctx, rdb, fallar, 2, QueueNotificaciones, raw)
	}

	n, err := DLQLength(ctx, rdb, QueueNotificaciones)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	pendientes, err := rdb.LLen(ctx, QueueNotificaciones).Result()
	require.NoError(t, err)
	assert.Zero(t, pendientes)

	movidos, err := ReprocesarDLQ(ctx, rdb, QueueNotificaciones, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, movidos)

	raw, err := rdb.RPop(ctx, QueueNotificaciones).Result()
	require.NoError(t, err)
	processJob(ctx, rdb, handlerFunc(func(_ context.Context, j Job) error {
		assert.Equal(t, JobDescuadre, j.Type)
		assert.Zero(t, j.Intentos)
		return nil
	}), 2, QueueNotificaciones, raw)

	n, err = DLQLength(ctx, rdb, QueueNotificaciones)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessJob_SobreInvalido(t *testing.T) {
	rdb := redisDePrueba(t)
	ctx := context.Background()
	processJob(ctx, rdb, handlerFunc(func(context.Context, Job) error { return nil }), 3, QueueNotificaciones, "{no-json")

	n, err := DLQLength(ctx, rdb, QueueNotificaciones)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
