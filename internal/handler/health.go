package handler

import (
	"context"
	"net/http"
	"time"

	"ferrepos/internal/infra"
	"ferrepos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// rdb may be nil when the deployment runs without Redis.
func Health(db *gorm.DB, rdb redis.UniversalClient, smtpCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		healthy := dbStatus == "connected"

		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
				healthy = false
			}
			body["redis"] = redisStatus
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueNotificaciones); err == nil {
				body["dlq_notificaciones"] = n
			}
		} else {
			body["redis"] = "disabled"
		}
		if smtpCB != nil {
			body["smtp_breaker"] = smtpCB.State().String()
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = healthy
		c.JSON(status, body)
	}
}
