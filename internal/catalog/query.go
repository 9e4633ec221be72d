package catalog

import "errors"

// Sort is the client-side ordering of a catalog view.
type Sort string

const (
	SortPopular   Sort = "POPULAR"
	SortPriceAsc  Sort = "PRICE_ASC"
	SortPriceDesc Sort = "PRICE_DESC"
)

const DefaultSort = SortPopular
const DefaultPageSize = 20

// reservedPriceKey never appears in the attribute filter map; the price
// bound is modeled separately as a PriceRange.
const reservedPriceKey = "Price"

var (
	ErrReservedAttribute = errors.New("price is filtered through the price range, not an attribute")
	ErrInvalidPriceRange = errors.New("price range min must not exceed max")
	ErrInvalidPageSize   = errors.New("page size must be one of 10, 20, 50, 100")
	ErrInvalidSort       = errors.New("unknown sort key")
	ErrPageOutOfRange    = errors.New("page is out of range")
	ErrNotPaginated      = errors.New("filtered results are not paginated")
)

var validPageSizes = map[int]bool{10: true, 20: true, 50: true, 100: true}

// ValidPageSize reports whether n is an accepted page size.
func ValidPageSize(n int) bool {
	return validPageSizes[n]
}

// ValidSort reports whether s is a known sort key.
func ValidSort(s Sort) bool {
	switch s {
	case SortPopular, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// PriceRange is an inclusive price bound. Min <= Max always holds.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// FilterSet holds the attribute and price filters of one catalog view.
// Two instances exist per view: the draft being edited in an open control
// and the applied set actually sent to the server.
type FilterSet struct {
	Attributes map[string][]string
	PriceRange *PriceRange
}

// SetAttribute stages the selected values for one attribute. An empty
// value list removes the attribute. The reserved "Price" key is rejected.
func (f *FilterSet) SetAttribute(name string, values []string) error {
	if name == reservedPriceKey {
		return ErrReservedAttribute
	}
	if len(values) == 0 {
		delete(f.Attributes, name)
		return nil
	}
	if f.Attributes == nil {
		f.Attributes = make(map[string][]string)
	}
	f.Attributes[name] = append([]string(nil), values...)
	return nil
}

// SetPriceRange stages the price bound. A nil range clears it.
func (f *FilterSet) SetPriceRange(r *PriceRange) error {
	if r != nil && r.Min > r.Max {
		return ErrInvalidPriceRange
	}
	if r == nil {
		f.PriceRange = nil
		return nil
	}
	bound := *r
	f.PriceRange = &bound
	return nil
}

// Empty reports whether the set carries no filters at all.
func (f FilterSet) Empty() bool {
	return len(f.Attributes) == 0 && f.PriceRange == nil
}

// Clone returns an independent copy.
func (f *FilterSet) Clone() FilterSet {
	clone := FilterSet{}
	if len(f.Attributes) > 0 {
		clone.Attributes = make(map[string][]string, len(f.Attributes))
		for name, values := range f.Attributes {
			clone.Attributes[name] = append([]string(nil), values...)
		}
	}
	if f.PriceRange != nil {
		bound := *f.PriceRange
		clone.PriceRange = &bound
	}
	return clone
}

// Reset drops all staged filters.
func (f *FilterSet) Reset() {
	f.Attributes = nil
	f.PriceRange = nil
}
