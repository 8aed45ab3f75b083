// Package api exposes the slip service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"qr-slip/pkg/apperrors"
	"qr-slip/pkg/models"
	"qr-slip/pkg/services/slip"
)

// SlipGenerator produces payment slips
type SlipGenerator interface {
	Generate(ctx context.Context, req models.SlipRequest) (*slip.Slip, error)
}

// InvoiceLister lists issued slips
type InvoiceLister interface {
	List(ctx context.Context, limit int) ([]models.Invoice, error)
}

// referenceFields are the validation fields reported as reference errors
var referenceFields = map[string]bool{
	"store_code":     true,
	"invoice_number": true,
	"year":           true,
	"base":           true,
}

// Handler serves the HTTP endpoints
type Handler struct {
	slips       SlipGenerator
	invoices    InvoiceLister
	serviceName string
	log         *logrus.Logger
}

// NewHandler creates a Handler. invoices may be nil when no store is configured.
func NewHandler(slips SlipGenerator, invoices InvoiceLister, serviceName string, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		slips:       slips,
		invoices:    invoices,
		serviceName: serviceName,
		log:         log,
	}
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": h.serviceName})
}

// GenerateSlip returns the PDF payment slip for the posted request
func (h *Handler) GenerateSlip(c *gin.Context) {
	req := models.DefaultSlipRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request: " + err.Error()})
		return
	}

	id := requestID(c)
	s, err := h.slips.Generate(slip.ContextWithRequestID(c.Request.Context(), id), req)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			prefix := "Invalid request"
			if referenceFields[verr.Field] {
				prefix = "Reference error"
			}
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("%s: %s", prefix, verr.Message)})
			return
		}
		h.log.WithError(err).WithField("request_id", id.String()).Error("slip generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Slip generation failed."})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, s.Filename))
	c.Header("X-Reference", s.Reference)
	c.Data(http.StatusOK, "application/pdf", s.PDF)
}

// ListInvoices returns recently issued slips
func (h *Handler) ListInvoices(c *gin.Context) {
	if h.invoices == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Invoice store not configured."})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request: limit must be a positive integer"})
			return
		}
		limit = n
	}

	invoices, err := h.invoices.List(c.Request.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("listing invoices failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Listing invoices failed."})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// RouterConfig holds the HTTP settings
type RouterConfig struct {
	APIKey         string
	AllowedOrigins []string
}

// NewRouter wires the routes and middleware
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(h.log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	r.GET("/health", h.Health)

	protected := r.Group("/", APIKey(cfg.APIKey))
	protected.POST("/generate", h.GenerateSlip)
	protected.GET("/invoices", h.ListInvoices)

	return r
}
