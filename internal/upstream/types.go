package upstream

import (
	"context"

	"github.com/example/storefront-view/internal/pricing"
)

// ProductSummary is one row of a catalog listing.
type ProductSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         int      `json:"price"`
	PriceDiscount *int     `json:"price_discount,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	Stock         int      `json:"stock"`
	ImagePrimary  string   `json:"image_primary"`
	Promotion     string   `json:"promotion,omitempty"`
}

// ProductListResult is one page of a paginated listing. An empty result has
// TotalPages 0.
type ProductListResult struct {
	Items         []ProductSummary `json:"items"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	TotalElements int              `json:"total_elements"`
}

// Attribute is one display attribute of a product. Order is significant.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variant is a purchasable color variant owned by its parent product.
// Price is a pointer because upstream occasionally violates its contract
// and omits it; a missing price renders as unavailable, never as zero.
type Variant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price *int   `json:"price,omitempty"`
	Stock int    `json:"stock"`
	Image string `json:"image"`
}

// ProductDetail is the full product view. A product with a non-empty
// Colors slice is variant-bearing; one without is simple.
type ProductDetail struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Price          int         `json:"price"`
	Attributes     []Attribute `json:"attributes"`
	Images         []string    `json:"images"`
	Colors         []Variant   `json:"colors"`
	ProductModelID string      `json:"product_model_id,omitempty"`
}

// SiblingConfiguration is another product under the same product model,
// used only for cross-navigation. IsCurrent is computed client-side by id
// equality against the viewed product.
type SiblingConfiguration struct {
	ID                   string `json:"id"`
	ConfigurationSummary string `json:"configuration_summary"`
	IsCurrent            bool   `json:"is_current"`
}

// FilterRequest is the body of the filtered-search endpoint. Attributes
// never contains a "Price" key; the price bound travels separately.
type FilterRequest struct {
	Category   string              `json:"category"`
	Brand      string              `json:"brand,omitempty"`
	Attributes map[string][]string `json:"attributes"`
	MinPrice   *int                `json:"min_price,omitempty"`
	MaxPrice   *int                `json:"max_price,omitempty"`
}

// ShippingAddress is the delivery destination submitted with an order.
type ShippingAddress struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
}

// OrderItem is one purchased line. ItemID is the variant id for
// variant-bearing products, the product id otherwise.
type OrderItem struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// OrderRequest is the order submission payload.
type OrderRequest struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	PromotionCode   string          `json:"promotion_code,omitempty"`
	Items           []OrderItem     `json:"items"`
}

// Commerce is the surface of the remote commerce service that the
// view-state engine consumes.
type Commerce interface {
	ListProducts(ctx context.Context, category, brand string, page, size int) (ProductListResult, error)
	SearchProducts(ctx context.Context, req FilterRequest) ([]ProductSummary, error)
	GetProduct(ctx context.Context, id string) (*ProductDetail, error)
	ListSiblings(ctx context.Context, modelID string) ([]SiblingConfiguration, error)
	ListPromotions(ctx context.Context) ([]pricing.Promotion, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
}
