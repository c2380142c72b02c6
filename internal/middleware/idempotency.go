package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyTTL       = 24 * time.Hour
	inFlightTTL          = 30 * time.Second
	inFlightMarker       = "in-flight"
)

// storedResponse is the replayable part of a handled request.
type storedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// bodyRecorder tees the response body so it can be stored after the handler ran.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// replayable reports whether a response may be served again for the same key.
// Server errors and conflicts (lock contention, lost races) are left retryable.
func replayable(status int) bool {
	return status >= 200 && status < 500 && status != http.StatusConflict
}

// IdempotencyMiddleware makes mutating requests carrying an Idempotency-Key
// safe to retry: the first response for a method, path and key is stored and
// replayed, and a duplicate arriving while the first is still running gets 409.
// Redis failures degrade to serving the request without protection.
func IdempotencyMiddleware(redisClient *redis.Client, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKeyPrefix + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		log := logger.WithField("idempotency_key", key)

		claimed, err := redisClient.SetNX(ctx, redisKey, inFlightMarker, inFlightTTL).Result()
		if err != nil {
			log.WithError(err).Warn("idempotency lookup failed, serving request without replay")
			c.Next()
			return
		}

		if !claimed {
			stored, err := loadResponse(ctx, redisClient, redisKey)
			switch {
			case errors.Is(err, errInFlight):
				c.AbortWithStatusJSON(http.StatusConflict, errorBody{Error: "request with this Idempotency-Key is still in progress"})
			case err != nil:
				log.WithError(err).Warn("idempotency lookup failed, serving request without replay")
				c.Next()
			default:
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
			}
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		status := recorder.Status()
		if !replayable(status) {
			if err := redisClient.Del(context.WithoutCancel(ctx), redisKey).Err(); err != nil {
				log.WithError(err).Warn("failed to release idempotency key")
			}
			return
		}

		stored := storedResponse{
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := saveResponse(context.WithoutCancel(ctx), redisClient, redisKey, stored); err != nil {
			log.WithError(err).Warn("failed to store idempotent response")
		}
	}
}

var errInFlight = errors.New("idempotent request in flight")

func loadResponse(ctx context.Context, client *redis.Client, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; treat as still running.
		return nil, errInFlight
	}
	if err != nil {
		return nil, err
	}
	if string(data) == inFlightMarker {
		return nil, errInFlight
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func saveResponse(ctx context.Context, client *redis.Client, key string, stored storedResponse) error {
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
