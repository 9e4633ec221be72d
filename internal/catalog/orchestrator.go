package catalog

import (
	"context"
	"log"
	"sync"

	"github.com/example/storefront-view/internal/upstream"
)

// View is the authoritative result set currently on display, together with
// the query state that produced it. Paginated is false on the filtered
// path: the search endpoint returns the full set in one response, so pager
// controls are hidden there.
type View struct {
	Category      string                    `json:"category"`
	Brand         string                    `json:"brand,omitempty"`
	Items         []upstream.ProductSummary `json:"items"`
	Page          int                       `json:"page"`
	TotalPages    int                       `json:"total_pages"`
	TotalElements int                       `json:"total_elements"`
	Sort          Sort                      `json:"sort"`
	PageSize      int                       `json:"page_size"`
	Filtered      bool                      `json:"filtered"`
	Paginated     bool                      `json:"paginated"`
}

// Orchestrator keeps one catalog surface consistent: it turns the current
// scope, filters, sort and page into exactly one authoritative request and
// replaces the displayed view only with the response to the most recently
// issued request. Fetches run asynchronously; every fetch carries a
// sequence number and late responses to superseded requests are discarded,
// so responses land in request-issue order rather than completion order.
type Orchestrator struct {
	mu     sync.Mutex
	source upstream.Commerce

	category string
	brand    string
	sort     Sort
	page     int
	pageSize int
	draft    FilterSet
	applied  FilterSet

	seq  uint64
	view View
}

func NewOrchestrator(source upstream.Commerce) *Orchestrator {
	return &Orchestrator{
		source:   source,
		sort:     DefaultSort,
		pageSize: DefaultPageSize,
		view:     View{Sort: DefaultSort, PageSize: DefaultPageSize, Paginated: true},
	}
}

// SetScope points the view at a category (and optional brand). A new scope
// invalidates old filters: page resets to 0, draft and applied filters are
// cleared, sort returns to the default, and a base listing fetch is issued.
func (o *Orchestrator) SetScope(ctx context.Context, category, brand string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.category = category
	o.brand = brand
	o.page = 0
	o.sort = DefaultSort
	o.draft.Reset()
	o.applied.Reset()
	o.issueList(ctx)
}

// SetPageSize resets to the first page and re-issues whichever request
// kind is active.
func (o *Orchestrator) SetPageSize(ctx context.Context, n int) error {
	if !ValidPageSize(n) {
		return ErrInvalidPageSize
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.pageSize = n
	o.page = 0
	if o.applied.Empty() {
		o.issueList(ctx)
	} else {
		o.issueSearch(ctx)
	}
	return nil
}

// GotoPage re-issues the base listing at page p. Out-of-range pages are
// rejected without a fetch; the filtered path has no pages at all.
func (o *Orchestrator) GotoPage(ctx context.Context, p int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.applied.Empty() {
		return ErrNotPaginated
	}
	if p < 0 || p >= o.view.TotalPages {
		return ErrPageOutOfRange
	}

	o.page = p
	o.issueList(ctx)
	return nil
}

// StageFilter mutates only the draft filter set; no request is issued
// until ApplyFilters commits the draft.
func (o *Orchestrator) StageFilter(name string, values []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft.SetAttribute(name, values)
}

// StagePriceRange stages the draft price bound; nil clears it.
func (o *Orchestrator) StagePriceRange(r *PriceRange) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft.SetPriceRange(r)
}

// ApplyFilters commits draft to applied. A non-empty applied set switches
// the surface to the filtered-search endpoint; an empty one falls back to
// the base listing at page 0.
func (o *Orchestrator) ApplyFilters(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.applied = o.draft.Clone()
	o.page = 0
	if o.applied.Empty() {
		o.issueList(ctx)
	} else {
		o.issueSearch(ctx)
	}
}

// ClearFilters empties both draft and applied sets and falls back to the
// base listing at page 0 with the default sort, exactly as if the scope
// had just been entered.
func (o *Orchestrator) ClearFilters(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.draft.Reset()
	o.applied.Reset()
	o.page = 0
	o.sort = DefaultSort
	o.issueList(ctx)
}

// SetSort re-orders the already-fetched items client-side. No fetch: the
// server's ordering is fixed and the filtered set is complete, so sorting
// is purely a display concern.
func (o *Orchestrator) SetSort(key Sort) error {
	if !ValidSort(key) {
		return ErrInvalidSort
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.sort = key
	o.view.Sort = key
	o.view.Items = sortItems(o.view.Items, key)
	return nil
}

// View returns a copy of the displayed state.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	view := o.view
	view.Items = append([]upstream.ProductSummary(nil), o.view.Items...)
	return view
}

// Draft returns a copy of the draft filter set.
func (o *Orchestrator) Draft() FilterSet {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft.Clone()
}

// Applied returns a copy of the applied filter set.
func (o *Orchestrator) Applied() FilterSet {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applied.Clone()
}

// FilterRequest builds the upstream search body from the applied set.
// Price travels as min/max bounds, never as an attribute.
func (o *Orchestrator) FilterRequest() upstream.FilterRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filterRequest()
}

func (o *Orchestrator) filterRequest() upstream.FilterRequest {
	applied := o.applied.Clone()
	req := upstream.FilterRequest{
		Category:   o.category,
		Brand:      o.brand,
		Attributes: applied.Attributes,
	}
	if req.Attributes == nil {
		req.Attributes = map[string][]string{}
	}
	if applied.PriceRange != nil {
		min, max := applied.PriceRange.Min, applied.PriceRange.Max
		req.MinPrice = &min
		req.MaxPrice = &max
	}
	return req
}

// issueList fires a base-listing fetch tagged with the next sequence
// number. Callers hold the lock.
func (o *Orchestrator) issueList(ctx context.Context) {
	o.seq++
	seq := o.seq
	category, brand, page, size := o.category, o.brand, o.page, o.pageSize

	go func() {
		result, err := o.source.ListProducts(ctx, category, brand, page, size)
		if err != nil {
			log.Printf("[Catalog] listing fetch failed (category=%s page=%d): %v", category, page, err)
			result = upstream.ProductListResult{Page: page}
		}
		o.applyList(seq, result)
	}()
}

// issueSearch fires a filtered-search fetch tagged with the next sequence
// number. Callers hold the lock.
func (o *Orchestrator) issueSearch(ctx context.Context) {
	o.seq++
	seq := o.seq
	req := o.filterRequest()

	go func() {
		items, err := o.source.SearchProducts(ctx, req)
		if err != nil {
			log.Printf("[Catalog] filtered search failed (category=%s): %v", req.Category, err)
			items = nil
		}
		o.applySearch(seq, items)
	}()
}

func (o *Orchestrator) applyList(seq uint64, result upstream.ProductListResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		log.Printf("[Catalog] discarding stale listing response (seq %d, latest %d)", seq, o.seq)
		return
	}

	o.view = View{
		Category:      o.category,
		Brand:         o.brand,
		Items:         sortItems(result.Items, o.sort),
		Page:          result.Page,
		TotalPages:    result.TotalPages,
		TotalElements: result.TotalElements,
		Sort:          o.sort,
		PageSize:      o.pageSize,
		Filtered:      false,
		Paginated:     true,
	}
}

func (o *Orchestrator) applySearch(seq uint64, items []upstream.ProductSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		log.Printf("[Catalog] discarding stale search response (seq %d, latest %d)", seq, o.seq)
		return
	}

	o.view = View{
		Category:      o.category,
		Brand:         o.brand,
		Items:         sortItems(items, o.sort),
		Page:          0,
		TotalPages:    0,
		TotalElements: len(items),
		Sort:          o.sort,
		PageSize:      o.pageSize,
		Filtered:      true,
		Paginated:     false,
	}
}
