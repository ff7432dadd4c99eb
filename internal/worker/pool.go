package worker

import (
	"context"
	"encoding/json"
	"time"

	"ferrepos/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueNotificaciones = "jobs:notificaciones"

// Job types
const (
	JobDescuadre            = "descuadre"
	JobCierreAdministrativo = "cierre_administrativo"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Intentos int             `json:"intentos"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. It satisfies service.Notificador.
type Dispatcher struct {
	rdb redis.UniversalClient
}

func NewDispatcher(rdb redis.UniversalClient) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotificarDescuadre queues an admin alert for a close with discrepancy.
func (d *Dispatcher) NotificarDescuadre(ctx context.Context, ev dto.EventoDescuadre) error {
	return d.enqueue(ctx, QueueNotificaciones, Job{Type: JobDescuadre}, ev)
}

// PublicarAuditoria queues the audit trail of an administrative close.
func (d *Dispatcher) PublicarAuditoria(ctx context.Context, ev dto.EventoCierreAdministrativo) error {
	return d.enqueue(ctx, QueueNotificaciones, Job{Type: JobCierreAdministrativo}, ev)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job.Payload = data
	return push(ctx, d.rdb, queue, job)
}

func push(ctx context.Context, rdb redis.UniversalClient, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one job. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, job Job) error
}

// StartWorkerPool launches numWorkers goroutines consuming the notification queue.
// Each goroutine blocks on BRPOP and stays idle until a job arrives.
func StartWorkerPool(ctx context.Context, rdb redis.UniversalClient, numWorkers, maxIntentos int, h Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, maxIntentos, h)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb redis.UniversalClient, id, maxIntentos int, h Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueNotificaciones).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, h, maxIntentos, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb redis.UniversalClient, h Handler, maxIntentos int, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		// keep the raw text as a JSON string; it is not valid JSON itself
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, rdb, queue, "unknown", quoted, "invalid envelope", 0)
		return
	}

	err := h.Process(ctx, job)
	switch siguiente(job, err, maxIntentos) {
	case accionListo:
		log.Debug().Str("type", job.Type).Msg("job processed")
	case accionReintentar:
		job.Intentos++
		log.Warn().Err(err).Str("type", job.Type).Int("intentos", job.Intentos).Msg("job failed, requeued")
		if perr := push(ctx, rdb, queue, job); perr != nil {
			log.Error().Err(perr).Str("queue", queue).Msg("requeue failed")
		}
	case accionDLQ:
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Intentos+1)
	}
}

type accion int

const (
	accionListo accion = iota
	accionReintentar
	accionDLQ
)

// siguiente decides what happens to a job after one processing attempt.
func siguiente(job Job, err error, maxIntentos int) accion {
	if err == nil {
		return accionListo
	}
	if job.Intentos+1 < maxIntentos {
		return accionReintentar
	}
	return accionDLQ
}
