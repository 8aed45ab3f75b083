package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// APIKeyHeader carries the shared secret
	APIKeyHeader = "X-API-Key"
	// RequestIDHeader is the header read and written by the requestid middleware
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
)

// RequestID assigns every request an id. A valid incoming UUID is reused;
// any other incoming value is echoed back and mapped to a stable UUID.
func RequestID() gin.HandlerFunc {
	return requestid.New(
		requestid.WithHandler(func(c *gin.Context, rid string) {
			c.Set(requestIDKey, toUUID(rid))
		}),
	)
}

func toUUID(rid string) uuid.UUID {
	if id, err := uuid.Parse(rid); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(rid))
}

func requestID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.New()
}

// Logger logs one line per request
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": requestID(c).String(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

// APIKey rejects requests without the configured key. An unconfigured key
// blocks every request.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"detail": "API key not configured on server (QRBILL_API_KEY).",
			})
			return
		}
		got := c.GetHeader(APIKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Unauthorized (bad API key)."})
			return
		}
		c.Next()
	}
}

// CORS allows browser calls from the listed origins. Requests from any other
// origin are refused with 403. Origins must carry an http or https scheme.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", APIKeyHeader, RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", "X-Reference", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	})
}
