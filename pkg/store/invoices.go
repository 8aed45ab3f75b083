// Package store keeps a log of issued payment slips in PostgreSQL.
package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"qr-slip/pkg/models"
)

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

// Open connects to PostgreSQL
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

// InvoiceStore persists issued slip records
type InvoiceStore struct {
	db *gorm.DB
}

// NewInvoiceStore creates a store on an open connection
func NewInvoiceStore(db *gorm.DB) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Migrate creates or updates the invoices table
func (s *InvoiceStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.Invoice{}); err != nil {
		return fmt.Errorf("failed to migrate invoices: %v", err)
	}
	return nil
}

// Save inserts an issued slip record
func (s *InvoiceStore) Save(ctx context.Context, invoice *models.Invoice) error {
	if err := s.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to save invoice %s/%s: %w", invoice.StoreCode, invoice.InvoiceNumber, err)
	}
	return nil
}

// List returns the most recent records, newest first
func (s *InvoiceStore) List(ctx context.Context, limit int) ([]models.Invoice, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}
