// Package slip runs the payment slip pipeline: structured reference, base
// slip from the external generator, supplementary annotation, and rendering
// to PDF.
package slip

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"qr-slip/pkg/apperrors"
	"qr-slip/pkg/models"
	"qr-slip/pkg/services/annotate"
	"qr-slip/pkg/services/reference"
)

var maxAmount = decimal.RequireFromString("999999999.99")

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Bill is the data handed to the slip generator
type Bill struct {
	Account   string
	Creditor  models.Address
	Debtor    models.Address
	Amount    decimal.Decimal
	HasAmount bool
	Currency  string
	Reference string
	Language  string
}

// Generator writes the base payment slip for a bill as SVG
type Generator interface {
	Generate(ctx context.Context, bill Bill, svgPath string) error
}

// Renderer converts an SVG slip into a PDF
type Renderer interface {
	Render(ctx context.Context, svgPath, pdfPath string) error
}

// Recorder stores issued slips
type Recorder interface {
	Save(ctx context.Context, invoice *models.Invoice) error
}

// Slip is a generated payment slip
type Slip struct {
	RequestID  uuid.UUID
	Reference  string
	Grouped    string
	Year       int
	Amount     decimal.Decimal
	Filename   string
	PDF        []byte
	Annotation annotate.Result
}

// Options configures a Service
type Options struct {
	WorkDir  string
	Logger   *logrus.Logger
	Recorder Recorder
	Now      func() time.Time
}

// Service generates payment slips
type Service struct {
	generator Generator
	renderer  Renderer
	annotator *annotate.Annotator
	recorder  Recorder
	workDir   string
	log       *logrus.Logger
	now       func() time.Time
}

// NewService creates a new slip service
func NewService(generator Generator, renderer Renderer, annotator *annotate.Annotator, opts Options) *Service {
	s := &Service{
		generator: generator,
		renderer:  renderer,
		annotator: annotator,
		recorder:  opts.Recorder,
		workDir:   opts.WorkDir,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if s.annotator == nil {
		s.annotator = annotate.NewDefault()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Generate validates the request, then produces the annotated PDF slip.
// Validation happens before any file is written.
func (s *Service) Generate(ctx context.Context, req models.SlipRequest) (*Slip, error) {
	requestID := RequestIDFromContext(ctx)
	log := s.log.WithField("request_id", requestID.String())

	now := s.now()
	id := req.Identifier()
	if id.Year == 0 {
		id.Year = now.Year()
	}

	base, err := reference.BuildBaseAt(id, now)
	if err != nil {
		return nil, err
	}
	ref, err := reference.ComputeReference(base)
	if err != nil {
		return nil, err
	}

	amount, hasAmount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	bill := Bill{
		Account:   strings.TrimSpace(req.IBAN),
		Creditor:  req.Creditor(),
		Debtor:    req.Debtor(),
		Amount:    amount,
		HasAmount: hasAmount,
		Currency:  currency,
		Reference: ref,
		Language:  req.Lang,
	}

	dir, err := os.MkdirTemp(s.workDir, "qrslip-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %v", err)
	}
	defer os.RemoveAll(dir)

	svgPath := filepath.Join(dir, "qr-bill.svg")
	pdfPath := filepath.Join(dir, "qr-bill.pdf")

	if err := s.generator.Generate(ctx, bill, svgPath); err != nil {
		return nil, fmt.Errorf("failed to generate slip: %w", err)
	}

	grouped := reference.FormatGrouped(ref)
	res, err := s.annotator.AnnotateFile(svgPath, grouped, req.InfoLines())
	if err != nil {
		return nil, fmt.Errorf("failed to annotate slip: %w", err)
	}
	for _, b := range res.Blocks {
		log.WithFields(logrus.Fields{
			"side":       b.Side.String(),
			"x":          b.Origin.X,
			"y":          b.Origin.Y,
			"from_label": b.Anchor.FromLabel,
		}).Debug("placed supplementary block")
	}
	if !res.Applied() {
		log.WithField("reference", grouped).Warn("no anchor found, slip left without supplementary block")
	}

	if err := s.renderer.Render(ctx, svgPath, pdfPath); err != nil {
		return nil, fmt.Errorf("failed to render slip: %w", err)
	}
	pdf, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered slip: %v", err)
	}

	slip := &Slip{
		RequestID:  requestID,
		Reference:  ref,
		Grouped:    grouped,
		Year:       id.Year,
		Amount:     amount,
		Filename:   filename(req, id.Year),
		PDF:        pdf,
		Annotation: res,
	}

	if s.recorder != nil {
		record := &models.Invoice{
			RequestID:     requestID,
			StoreCode:     digits(req.CompanyCode),
			InvoiceNumber: digits(req.InvoiceNumber),
			Year:          id.Year,
			Amount:        amount,
			Currency:      currency,
			DebtorName:    req.DebtorName,
			Filename:      slip.Filename,
		}
		if err := s.recorder.Save(ctx, record); err != nil {
			log.WithError(err).Error("failed to record issued slip")
		}
	}

	log.WithFields(logrus.Fields{
		"reference": ref,
		"filename":  slip.Filename,
		"annotated": res.Applied(),
		"bytes":     len(pdf),
	}).Info("generated payment slip")

	return slip, nil
}

// parseAmount accepts an empty amount (open amount slip) or a non-negative
// decimal with at most two fraction digits.
func parseAmount(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, apperrors.NewValidation("amount", s, "not a decimal number")
	}
	if d.IsNegative() {
		return decimal.Zero, false, apperrors.NewValidation("amount", s, "amount must not be negative")
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, false, apperrors.NewValidation("amount", s, "amount exceeds 999999999.99")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, false, apperrors.NewValidation("amount", s, "at most two decimal places")
	}
	return d, true, nil
}

func parseCurrency(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	switch c {
	case "":
		return "CHF", nil
	case "CHF", "EUR":
		return c, nil
	default:
		return "", apperrors.NewValidation("currency", s, "currency must be CHF or EUR")
	}
}

func filename(req models.SlipRequest, year int) string {
	name := fmt.Sprintf("QRBill_%s_%s_%d.pdf", req.CompanyCode, req.InvoiceNumber, year)
	return unsafeFilename.ReplaceAllString(name, "")
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id to ctx
func ContextWithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id carried by ctx, or a new one
func RequestIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(requestIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.New()
}
