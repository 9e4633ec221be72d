package fakes

import (
	"context"
	"sync"

	"github.com/example/storefront-view/internal/pricing"
	"github.com/example/storefront-view/internal/upstream"
)

// ListCall records parameters passed to ListProducts
type ListCall struct {
	Category string
	Brand    string
	Page     int
	Size     int
}

// FakeCommerce is an in-memory implementation of upstream.Commerce for
// testing. Calls are recorded; per-method callbacks let tests script
// responses or block a call to simulate slow, out-of-order completion.
type FakeCommerce struct {
	mu sync.Mutex

	ListCalls      []ListCall
	SearchCalls    []upstream.FilterRequest
	ProductCalls   []string
	SiblingCalls   []string
	PromotionCalls int
	OrderCalls     []upstream.OrderRequest

	ListResult      upstream.ProductListResult
	ListErr         error
	ListFunc        func(ctx context.Context, call ListCall) (upstream.ProductListResult, error)
	SearchResult    []upstream.ProductSummary
	SearchErr       error
	SearchFunc      func(ctx context.Context, req upstream.FilterRequest) ([]upstream.ProductSummary, error)
	ProductResult   *upstream.ProductDetail
	ProductErr      error
	SiblingResult   []upstream.SiblingConfiguration
	SiblingErr      error
	PromotionResult []pricing.Promotion
	PromotionErr    error
	OrderID         string
	OrderErr        error
}

var _ upstream.Commerce = (*FakeCommerce)(nil)

// NewFakeCommerce creates a new FakeCommerce
func NewFakeCommerce() *FakeCommerce {
	return &FakeCommerce{}
}

func (f *FakeCommerce) ListProducts(ctx context.Context, category, brand string, page, size int) (upstream.ProductListResult, error) {
	call := ListCall{Category: category, Brand: brand, Page: page, Size: size}
	f.mu.Lock()
	f.ListCalls = append(f.ListCalls, call)
	fn, result, err := f.ListFunc, f.ListResult, f.ListErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, call)
	}
	return result, err
}

func (f *FakeCommerce) SearchProducts(ctx context.Context, req upstream.FilterRequest) ([]upstream.ProductSummary, error) {
	f.mu.Lock()
	f.SearchCalls = append(f.SearchCalls, req)
	fn, result, err := f.SearchFunc, f.SearchResult, f.SearchErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return result, err
}

func (f *FakeCommerce) GetProduct(ctx context.Context, id string) (*upstream.ProductDetail, error) {
	f.mu.Lock()
	f.ProductCalls = append(f.ProductCalls, id)
	result, err := f.ProductResult, f.ProductErr
	f.mu.Unlock()
	return result, err
}

func (f *FakeCommerce) ListSiblings(ctx context.Context, modelID string) ([]upstream.SiblingConfiguration, error) {
	f.mu.Lock()
	f.SiblingCalls = append(f.SiblingCalls, modelID)
	result, err := f.SiblingResult, f.SiblingErr
	f.mu.Unlock()
	return result, err
}

func (f *FakeCommerce) ListPromotions(ctx context.Context) ([]pricing.Promotion, error) {
	f.mu.Lock()
	f.PromotionCalls++
	result, err := f.PromotionResult, f.PromotionErr
	f.mu.Unlock()
	return result, err
}

func (f *FakeCommerce) SubmitOrder(ctx context.Context, req upstream.OrderRequest) (string, error) {
	f.mu.Lock()
	f.OrderCalls = append(f.OrderCalls, req)
	id, err := f.OrderID, f.OrderErr
	f.mu.Unlock()
	return id, err
}

// ListCallCount returns the number of ListProducts calls so far.
func (f *FakeCommerce) ListCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ListCalls)
}

// SearchCallCount returns the number of SearchProducts calls so far.
func (f *FakeCommerce) SearchCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SearchCalls)
}

// LastListCall returns the most recent ListProducts call.
func (f *FakeCommerce) LastListCall() ListCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls[len(f.ListCalls)-1]
}
