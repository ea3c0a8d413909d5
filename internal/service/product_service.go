package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cardshop/internal/cache"
	apperrors "cardshop/internal/errors"
	"cardshop/internal/model"
	"cardshop/internal/repository"
)

const productCacheTTL = 5 * time.Minute

// ProductView is a product with its live stock.
type ProductView struct {
	model.Product
	Stock int64 `json:"stock"`
}

// CreateProductInput creates a product.
type CreateProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	MaxQuantity int
}

// UpdateProductInput patches a product. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	MaxQuantity *int
	Status      *model.ProductStatus
}

// ProductService handles catalog reads and admin product management.
type ProductService interface {
	ListActive(ctx context.Context) ([]ProductView, error)
	GetBySlug(ctx context.Context, slug string) (*ProductView, error)
	List(ctx context.Context, status model.ProductStatus) ([]ProductView, error)
	Create(ctx context.Context, in CreateProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*model.Product, error)
}

type productService struct {
	store  repository.Store
	cache  *cache.Client
	logger *zap.Logger
}

// NewProductService creates a new product service.
func NewProductService(store repository.Store, cache *cache.Client, logger *zap.Logger) ProductService {
	return &productService{store: store, cache: cache, logger: logger}
}

func productCacheKey(slug string) string {
	return "product:slug:" + slug
}

func (s *productService) ListActive(ctx context.Context) ([]ProductView, error) {
	return s.List(ctx, model.ProductStatusActive)
}

// GetBySlug returns an active product. The product row is cached, stock is always counted live.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*ProductView, error) {
	product, err := s.cachedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, apperrors.NotFound("Product not found")
	}

	stock, err := s.store.Cards().CountAvailable(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("count stock: %w", err)
	}
	return &ProductView{Product: *product, Stock: stock}, nil
}

func (s *productService) cachedBySlug(ctx context.Context, slug string) (*model.Product, error) {
	key := productCacheKey(slug)
	if data, _ := s.cache.Get(ctx, key); data != nil {
		var product model.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
	}

	product, err := s.store.Products().FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if data, err := json.Marshal(product); err == nil {
		_ = s.cache.Set(ctx, key, data, productCacheTTL)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, status model.ProductStatus) ([]ProductView, error) {
	products, err := s.store.Products().List(ctx, repository.ProductFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		stock, err := s.store.Cards().CountAvailable(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("count stock: %w", err)
		}
		views = append(views, ProductView{Product: p, Stock: stock})
	}
	return views, nil
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if err := validateProduct(in.Price, in.MaxQuantity); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.ToLower(strings.TrimSpace(in.Slug)),
		Description: in.Description,
		Price:       in.Price.Round(2),
		MaxQuantity: in.MaxQuantity,
		Status:      model.ProductStatusActive,
	}
	if err := s.store.Products().Create(ctx, product); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperrors.Conflict("Slug already in use")
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = in.Price.Round(2)
	}
	if in.MaxQuantity != nil {
		product.MaxQuantity = *in.MaxQuantity
	}
	if in.Status != nil {
		if *in.Status != model.ProductStatusActive && *in.Status != model.ProductStatusInactive {
			return nil, apperrors.Validation("Invalid status", map[string]string{"status": "oneof"})
		}
		product.Status = *in.Status
	}
	if err := validateProduct(product.Price, product.MaxQuantity); err != nil {
		return nil, err
	}

	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	_ = s.cache.Delete(ctx, productCacheKey(product.Slug))
	return product, nil
}

func validateProduct(price decimal.Decimal, maxQuantity int) error {
	details := map[string]string{}
	if !price.IsPositive() {
		details["price"] = "gt"
	}
	if maxQuantity < 1 {
		details["max_quantity"] = "min"
	}
	if len(details) > 0 {
		return apperrors.Validation("Invalid product", details)
	}
	return nil
}
