package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Store groups the repositories and is the unit of work boundary for the order core.
type Store interface {
	Products() ProductRepository
	Cards() CardRepository
	Orders() OrderRepository
	Restocks() RestockRepository
	Admins() AdminRepository
	// WithTransaction runs fn against a transaction bound Store. Returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type store struct {
	db *gorm.DB
}

// NewStore creates a GORM backed Store.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Products() ProductRepository { return NewProductRepository(s.db) }
func (s *store) Cards() CardRepository       { return NewCardRepository(s.db) }
func (s *store) Orders() OrderRepository     { return NewOrderRepository(s.db) }
func (s *store) Restocks() RestockRepository { return NewRestockRepository(s.db) }
func (s *store) Admins() AdminRepository     { return NewAdminRepository(s.db) }

// WithTransaction executes a function within a database transaction.
func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &store{db: tx})
	})
}

// Page selects a slice of a listing. Zero values mean the first page of 20.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) normalize() (offset, limit int) {
	size := p.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return (page - 1) * size, size
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique") || strings.Contains(s, "Duplicate entry")
}

// IsNotFound reports whether err is a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
