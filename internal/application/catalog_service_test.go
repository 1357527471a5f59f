// internal/application/catalog_service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"

	"github.com/vanamwellness/checkout-service/internal/domain"
	"github.com/vanamwellness/checkout-service/internal/ports"
)

func int64p(v int64) *int64 { return &v }

func testProduct(slug string, base int64, sale *int64, stock int) *domain.Product {
	return &domain.Product{
		ID:        "id-" + slug,
		Name:      slug,
		Slug:      slug,
		BasePrice: base,
		SalePrice: sale,
		Currency:  "INR",
		Status:    "active",
		Inventory: domain.Inventory{Stock: stock, TrackQuantity: true},
	}
}

func TestCatalogService_ResolveItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	catalog := ports.NewMockCatalogPort(ctrl)
	svc := NewCatalogService(catalog, discardLogger())

	tests := []struct {
		name      string
		reqs      []ItemRequest
		mockSetup func()
		want      []domain.OrderLineItem
		wantErr   error
	}{
		{
			name: "sale price wins",
			reqs: []ItemRequest{{Slug: "ashwagandha", Quantity: 2}, {Slug: "triphala", Quantity: 1}},
			mockSetup: func() {
				catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(testProduct("ashwagandha", 599, int64p(499), 10), nil)
				catalog.EXPECT().GetProduct(gomock.Any(), "triphala").Return(testProduct("triphala", 299, nil, 10), nil)
			},
			want: []domain.OrderLineItem{
				{ProductID: "id-ashwagandha", Slug: "ashwagandha", Name: "ashwagandha", UnitPrice: 499, Quantity: 2, Currency: "INR"},
				{ProductID: "id-triphala", Slug: "triphala", Name: "triphala", UnitPrice: 299, Quantity: 1, Currency: "INR"},
			},
		},
		{
			name:      "zero quantity",
			reqs:      []ItemRequest{{Slug: "ashwagandha", Quantity: 0}},
			mockSetup: func() {},
			wantErr:   domain.ErrInvalidQuantity,
		},
		{
			name: "over stock",
			reqs: []ItemRequest{{Slug: "ashwagandha", Quantity: 4}},
			mockSetup: func() {
				// the shortfall is rechecked once after the cache is dropped
				catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(testProduct("ashwagandha", 599, nil, 3), nil).Times(2)
				catalog.EXPECT().Invalidate(gomock.Any()).Return(nil)
			},
			wantErr: domain.ErrOutOfStock,
		},
		{
			name: "stale cached stock is refreshed",
			reqs: []ItemRequest{{Slug: "ashwagandha", Quantity: 4}},
			mockSetup: func() {
				gomock.InOrder(
					catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(testProduct("ashwagandha", 599, nil, 3), nil),
					catalog.EXPECT().Invalidate(gomock.Any()).Return(nil),
					catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(testProduct("ashwagandha", 599, nil, 20), nil),
				)
			},
			want: []domain.OrderLineItem{
				{ProductID: "id-ashwagandha", Slug: "ashwagandha", Name: "ashwagandha", UnitPrice: 599, Quantity: 4, Currency: "INR"},
			},
		},
		{
			name: "invalidate failure reports the shortfall",
			reqs: []ItemRequest{{Slug: "ashwagandha", Quantity: 4}},
			mockSetup: func() {
				catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(testProduct("ashwagandha", 599, nil, 3), nil)
				catalog.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis: connection refused"))
			},
			wantErr: domain.ErrOutOfStock,
		},
		{
			name: "inactive product",
			reqs: []ItemRequest{{Slug: "retired", Quantity: 1}},
			mockSetup: func() {
				p := testProduct("retired", 100, nil, 5)
				p.Status = "archived"
				catalog.EXPECT().GetProduct(gomock.Any(), "retired").Return(p, nil)
			},
			wantErr: domain.ErrProductNotFound,
		},
		{
			name: "unknown product",
			reqs: []ItemRequest{{Slug: "missing", Quantity: 1}},
			mockSetup: func() {
				catalog.EXPECT().GetProduct(gomock.Any(), "missing").Return(nil, domain.ErrProductNotFound)
			},
			wantErr: domain.ErrProductNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			got, err := svc.ResolveItems(context.Background(), tt.reqs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveItems() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveItems() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ResolveItems() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCatalogService_ResolveItems_UpstreamFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	catalog := ports.NewMockCatalogPort(ctrl)
	svc := NewCatalogService(catalog, discardLogger())
	catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(nil, errors.New("502 bad gateway"))

	_, err := svc.ResolveItems(context.Background(), []ItemRequest{{Slug: "ashwagandha", Quantity: 1}})
	if domain.Kind(err) != "network" {
		t.Errorf("ResolveItems() error = %v, want network failure", err)
	}
}

func TestCatalogService_GetProductTracksView(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	catalog := ports.NewMockCatalogPort(ctrl)
	svc := NewCatalogService(catalog, discardLogger())

	p := testProduct("ashwagandha", 599, nil, 10)
	catalog.EXPECT().GetProduct(gomock.Any(), "ashwagandha").Return(p, nil)
	catalog.EXPECT().TrackView(gomock.Any(), p.ID).Return(errors.New("view counter down"))

	got, err := svc.GetProduct(context.Background(), " ashwagandha ")
	if err != nil {
		t.Fatalf("GetProduct() error = %v, view failures should be ignored", err)
	}
	if got.Slug != "ashwagandha" {
		t.Errorf("GetProduct() = %+v", got)
	}

	if _, err := svc.GetProduct(context.Background(), "  "); domain.Kind(err) != "validation" {
		t.Errorf("GetProduct(blank) error = %v, want validation", err)
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   domain.ProductQuery
		want domain.ProductQuery
	}{
		{
			name: "defaults",
			in:   domain.ProductQuery{},
			want: domain.ProductQuery{Page: 1, Limit: 12, SortBy: "createdAt", SortOrder: "desc"},
		},
		{
			name: "limit capped",
			in:   domain.ProductQuery{Page: 3, Limit: 500, SortBy: "price", SortOrder: "asc"},
			want: domain.ProductQuery{Page: 3, Limit: 100, SortBy: "price", SortOrder: "asc"},
		},
		{
			name: "unknown sort falls back",
			in:   domain.ProductQuery{Page: -1, Limit: 5, SortBy: "rating; drop", SortOrder: "sideways", Search: "  tulsi "},
			want: domain.ProductQuery{Page: 1, Limit: 5, SortBy: "createdAt", SortOrder: "desc", Search: "tulsi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.in); got != tt.want {
				t.Errorf("NormalizeQuery() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCatalogService_ListProductsNormalizes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	catalog := ports.NewMockCatalogPort(ctrl)
	svc := NewCatalogService(catalog, discardLogger())

	want := domain.ProductQuery{Page: 1, Limit: 12, SortBy: "createdAt", SortOrder: "desc", Category: "herbs"}
	catalog.EXPECT().ListProducts(gomock.Any(), want).Return(&domain.ProductPage{}, nil)
	if _, err := svc.ListProducts(context.Background(), domain.ProductQuery{Category: "herbs"}); err != nil {
		t.Errorf("ListProducts() error = %v", err)
	}

	catalog.EXPECT().ListCategories(gomock.Any()).Return(nil, errors.New("dial tcp: refused"))
	if _, err := svc.ListCategories(context.Background()); domain.Kind(err) != "network" {
		t.Errorf("ListCategories() error = %v, want network failure", err)
	}
}
