// internal/application/catalog_service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type ItemRequest struct {
	Slug     string `json:"slug"`
	Quantity int    `json:"quantity"`
}

type CatalogService struct {
	catalog ports.CatalogPort
	logger  *slog.Logger
}

func NewCatalogService(catalog ports.CatalogPort, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{catalog: catalog, logger: logger}
}

func (s *CatalogService) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	q = NormalizeQuery(q)
	page, err := s.catalog.ListProducts(ctx, q)
	if err != nil {
		return nil, domain.Network("list products", err)
	}
	return page, nil
}

// GetProduct loads one product and records a view for it. A failed view count is only logged.
func (s *CatalogService) GetProduct(ctx context.Context, slugOrID string) (*domain.Product, error) {
	slugOrID = strings.TrimSpace(slugOrID)
	if slugOrID == "" {
		return nil, domain.NewValidationError("slug", "Product is required")
	}
	p, err := s.catalog.GetProduct(ctx, slugOrID)
	if err != nil {
		return nil, catalogError("get product", err)
	}
	if err := s.catalog.TrackView(ctx, p.ID); err != nil {
		s.logger.WarnContext(ctx, "track product view failed", "product_id", p.ID, "error", err)
	}
	return p, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	cats, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, domain.Network("list categories", err)
	}
	return cats, nil
}

// ResolveItems turns requested slugs into priced line items, looking products up concurrently.
// Quantity must be at least 1 and, for tracked inventory, at most the available stock.
// A stock shortfall is checked once more against fresh catalog data before it is reported.
func (s *CatalogService) ResolveItems(ctx context.Context, reqs []ItemRequest) ([]domain.OrderLineItem, error) {
	for i, r := range reqs {
		if strings.TrimSpace(r.Slug) == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("items[%d].slug", i), "Product is required")
		}
		if r.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s quantity %d", domain.ErrInvalidQuantity, r.Slug, r.Quantity)
		}
	}

	items, err := s.resolve(ctx, reqs)
	if !errors.Is(err, domain.ErrOutOfStock) {
		return items, err
	}
	if ierr := s.catalog.Invalidate(ctx); ierr != nil {
		s.logger.WarnContext(ctx, "catalog cache invalidate failed", "error", ierr)
		return nil, err
	}
	return s.resolve(ctx, reqs)
}

func (s *CatalogService) resolve(ctx context.Context, reqs []ItemRequest) ([]domain.OrderLineItem, error) {
	items := make([]domain.OrderLineItem, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range reqs {
		g.Go(func() error {
			p, err := s.catalog.GetProduct(gctx, strings.TrimSpace(r.Slug))
			if err != nil {
				return catalogError("get product", err)
			}
			if p.Status != "" && p.Status != "active" {
				return fmt.Errorf("%w: %s is %s", domain.ErrProductNotFound, p.Slug, p.Status)
			}
			if p.Inventory.TrackQuantity && r.Quantity > p.Inventory.Stock {
				return fmt.Errorf("%w: %s has %d left", domain.ErrOutOfStock, p.Slug, p.Inventory.Stock)
			}
			items[i] = domain.OrderLineItem{
				ProductID: p.ID,
				Slug:      p.Slug,
				Name:      p.Name,
				UnitPrice: p.EffectivePrice(),
				Quantity:  r.Quantity,
				Currency:  p.Currency,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// NormalizeQuery applies the storefront's listing defaults.
func NormalizeQuery(q domain.ProductQuery) domain.ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	switch q.SortBy {
	case "createdAt", "price", "name":
	default:
		q.SortBy = "createdAt"
	}
	switch q.SortOrder {
	case "asc", "desc":
	default:
		q.SortOrder = "desc"
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)
	q.Tag = strings.TrimSpace(q.Tag)
	return q
}

func catalogError(op string, err error) error {
	if domain.Kind(err) == "not_found" {
		return err
	}
	return domain.Network(op, err)
}
