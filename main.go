package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"qr-slip/pkg/api"
	"qr-slip/pkg/config"
	"qr-slip/pkg/services/annotate"
	"qr-slip/pkg/services/slip"
	"qr-slip/pkg/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	// Load environment variables
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Error loading configuration")
	}
	log.SetLevel(cfg.LogLevel)
	if cfg.LogLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.APIKey == "" {
		log.Warn("QRBILL_API_KEY is not set; protected routes will refuse every request")
	}

	// Set up database connection when configured
	var (
		recorder slip.Recorder
		invoices api.InvoiceLister
	)
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		s := store.NewInvoiceStore(db)
		if err := s.Migrate(); err != nil {
			log.WithError(err).Fatal("Failed to migrate database")
		}
		recorder, invoices = s, s
	} else {
		log.Info("DATABASE_URL not set; issued slips will not be recorded")
	}

	annotator := annotate.New(cfg.Layout, annotate.FrenchLabels())
	service := slip.NewService(
		slip.NewCommandGenerator(cfg.QRBillCommand),
		slip.NewCommandRenderer(cfg.RenderCommand),
		annotator,
		slip.Options{
			WorkDir:  cfg.WorkDir,
			Logger:   log,
			Recorder: recorder,
		},
	)

	// Set up Gin router
	h := api.NewHandler(service, invoices, cfg.ServiceName, log)
	r := api.NewRouter(h, api.RouterConfig{
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Start the server
	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
