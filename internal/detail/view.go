package detail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/example/storefront-view/internal/upstream"
)

var (
	ErrNoProduct         = errors.New("no product loaded")
	ErrNoVariants        = errors.New("product has no variants")
	ErrVariantOutOfRange = errors.New("variant index out of range")
	ErrNoImages          = errors.New("product has no images")
	ErrImageOutOfRange   = errors.New("image index out of range")
)

// Selection is the derived display/purchase state of a product detail
// view. It is recomputed whole on every transition, never field by field.
// SelectedVariant is -1 for a simple product. EffectivePrice is nil only
// when upstream omitted the selected variant's price; the UI renders
// "price unavailable" for that, never zero.
type Selection struct {
	SelectedVariant int    `json:"selected_variant"`
	SelectedImage   int    `json:"selected_image"`
	EffectivePrice  *int   `json:"effective_price"`
	EffectiveImage  string `json:"effective_image"`
	PurchaseID      string `json:"purchase_id"`
}

// Snapshot is the full detail view handed to the presentation layer.
type Snapshot struct {
	Product   *upstream.ProductDetail         `json:"product"`
	Selection Selection                       `json:"selection"`
	Siblings  []upstream.SiblingConfiguration `json:"siblings,omitempty"`
}

// View is one product-detail surface. Loading a product (including
// navigating to a sibling configuration) reinitializes everything;
// variant and thumbnail picks are synchronous transitions on the
// selection value, serialized so a click is never reordered or half
// applied.
type View struct {
	mu     sync.Mutex
	source upstream.Commerce

	product   *upstream.ProductDetail
	selection Selection
	siblings  []upstream.SiblingConfiguration
}

func NewView(source upstream.Commerce) *View {
	return &View{source: source}
}

// Load fetches the product and rebuilds the whole view for it. Navigating
// to a sibling configuration is just Load with the sibling's id. The
// sibling list is fetched only when the product exposes a model id; a
// failure there degrades to no siblings rather than failing the view.
func (v *View) Load(ctx context.Context, productID string) error {
	product, err := v.source.GetProduct(ctx, productID)
	if err != nil {
		v.mu.Lock()
		v.product = nil
		v.selection = Selection{}
		v.siblings = nil
		v.mu.Unlock()
		return fmt.Errorf("load product %s: %w", productID, err)
	}

	var siblings []upstream.SiblingConfiguration
	if product.ProductModelID != "" {
		siblings, err = v.source.ListSiblings(ctx, product.ProductModelID)
		if err != nil {
			log.Printf("[Detail] sibling fetch failed (model=%s): %v", product.ProductModelID, err)
			siblings = nil
		}
		for i := range siblings {
			// Current is identified by id, not by position
			siblings[i].IsCurrent = siblings[i].ID == product.ID
		}
	}

	v.mu.Lock()
	v.product = product
	v.selection = initSelection(product)
	v.siblings = siblings
	v.mu.Unlock()
	return nil
}

// SelectVariant picks color variant i and rederives price, image and
// purchase id from it. Re-selecting the active variant yields an
// identical selection.
func (v *View) SelectVariant(i int) (Selection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.product == nil {
		return Selection{}, ErrNoProduct
	}
	if len(v.product.Colors) == 0 {
		return Selection{}, ErrNoVariants
	}
	if i < 0 || i >= len(v.product.Colors) {
		return Selection{}, ErrVariantOutOfRange
	}

	v.selection = variantSelection(v.product, i)
	return v.selection, nil
}

// SelectThumbnail shows gallery image j, clearing any variant-driven
// image override. The selected variant (and its price) is untouched.
func (v *View) SelectThumbnail(j int) (Selection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.product == nil {
		return Selection{}, ErrNoProduct
	}
	if len(v.product.Images) == 0 {
		return Selection{}, ErrNoImages
	}
	if j < 0 || j >= len(v.product.Images) {
		return Selection{}, ErrImageOutOfRange
	}

	v.selection.SelectedImage = j
	v.selection.EffectiveImage = v.product.Images[j]
	return v.selection, nil
}

// Snapshot returns a copy of the current view.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return Snapshot{
		Product:   v.product,
		Selection: v.selection,
		Siblings:  append([]upstream.SiblingConfiguration(nil), v.siblings...),
	}
}

// initSelection derives the initial selection: the first variant for a
// variant-bearing product, the product's own price and primary image for
// a simple one.
func initSelection(p *upstream.ProductDetail) Selection {
	if len(p.Colors) > 0 {
		return variantSelection(p, 0)
	}

	price := p.Price
	sel := Selection{
		SelectedVariant: -1,
		EffectivePrice:  &price,
		PurchaseID:      p.ID,
	}
	if len(p.Images) > 0 {
		sel.EffectiveImage = p.Images[0]
	}
	return sel
}

// variantSelection derives the whole selection from variant i, resetting
// the gallery to the variant's own image.
func variantSelection(p *upstream.ProductDetail, i int) Selection {
	variant := p.Colors[i]
	sel := Selection{
		SelectedVariant: i,
		SelectedImage:   0,
		EffectiveImage:  variant.Image,
		PurchaseID:      variant.ID,
	}
	if variant.Price != nil {
		price := *variant.Price
		sel.EffectivePrice = &price
	}
	return sel
}
