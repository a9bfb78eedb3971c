package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "coffee-rewards.backend/internal/domain/errors"
	"coffee-rewards.backend/internal/interfaces/http/response"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration bounds how long a key stays "processing"
	LockDuration = 5 * time.Minute
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	idempotencyProcessing = "processing"
	maxIdempotencyKeyLen  = 128
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored body of a successful request
// sent again with the same Idempotency-Key by the same identity. It must
// run after AuthMiddleware. Requests pass straight through when the header
// is absent or Redis is unavailable.
func IdempotencyMiddleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !redis.Enabled() {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.Abort(c, domainerrors.InvalidArgument("Idempotency-Key is too long."))
			return
		}

		did, _ := GetPrivyDID(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", scope, did, key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil && val == idempotencyProcessing:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
				"code":  "IDEMPOTENCY_CONFLICT",
			})
			return
		case err == nil:
			c.Header("X-Idempotency-Hit", "true")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(val))
			c.Abort()
			return
		case !redis.IsNil(err):
			logger.Warn(ctx, "Idempotency lookup failed, processing without it", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, idempotencyProcessing, LockDuration)
		if err != nil || !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "Request already in progress",
				"code":  "IDEMPOTENCY_CONFLICT",
			})
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			if err := redisSet(ctx, storageKey, w.body.String(), RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		// Failed requests may be retried with the same key
		_ = redisDel(ctx, storageKey)
	}
}
