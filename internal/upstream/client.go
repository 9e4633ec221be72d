package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/example/storefront-view/internal/pricing"
)

// APIError is a non-2xx response from the commerce service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

// Client talks to the commerce service. Responses arrive as
// {"data": <payload>} envelopes, errors as {"error": <message>}.
// No automatic retries: callers degrade to empty view state instead.
type Client struct {
	http *resty.Client
}

var _ Commerce = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

// decodeData checks the response status and unwraps the {data: ...}
// envelope into out.
func decodeData(resp *resty.Response, out any) error {
	if resp.IsError() {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		if body.Error == "" {
			body.Error = resp.Status()
		}
		return &APIError{Status: resp.StatusCode(), Message: body.Error}
	}
	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// ListProducts fetches one page of the base category/brand listing. Server
// ordering is createdAt descending regardless of the client sort key;
// display ordering is the catalog orchestrator's job.
func (c *Client) ListProducts(ctx context.Context, category, brand string, page, size int) (ProductListResult, error) {
	params := map[string]string{
		"category": category,
		"page":     strconv.Itoa(page),
		"size":     strconv.Itoa(size),
		"sortBy":   "createdAt",
		"sortDir":  "desc",
	}
	if brand != "" {
		params["brand"] = brand
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/products")
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}

	var payload struct {
		Content       []ProductSummary `json:"content"`
		TotalPages    int              `json:"totalPages"`
		TotalElements int              `json:"totalElements"`
	}
	if err := decodeData(resp, &payload); err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}

	return ProductListResult{
		Items:         payload.Content,
		Page:          page,
		TotalPages:    payload.TotalPages,
		TotalElements: payload.TotalElements,
	}, nil
}

// SearchProducts runs the filtered search. The server does not paginate
// this path: the full matching set comes back in one response.
func (c *Client) SearchProducts(ctx context.Context, req FilterRequest) ([]ProductSummary, error) {
	if req.Attributes == nil {
		req.Attributes = map[string][]string{}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/products/search")
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	var items []ProductSummary
	if err := decodeData(resp, &items); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return items, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*ProductDetail, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/products/" + id)
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	var detail ProductDetail
	if err := decodeData(resp, &detail); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &detail, nil
}

// ListSiblings fetches the sibling configurations of a product model. This
// endpoint predates the {data:...} envelope and may return the bare array;
// both shapes are accepted.
func (c *Client) ListSiblings(ctx context.Context, modelID string) ([]SiblingConfiguration, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/product-models/" + modelID + "/configurations")
	if err != nil {
		return nil, fmt.Errorf("list siblings %s: %w", modelID, err)
	}
	if resp.IsError() {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		if body.Error == "" {
			body.Error = resp.Status()
		}
		return nil, fmt.Errorf("list siblings %s: %w", modelID, &APIError{Status: resp.StatusCode(), Message: body.Error})
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		var siblings []SiblingConfiguration
		if err := json.Unmarshal(env.Data, &siblings); err != nil {
			return nil, fmt.Errorf("list siblings %s: decode payload: %w", modelID, err)
		}
		return siblings, nil
	}

	var siblings []SiblingConfiguration
	if err := json.Unmarshal(resp.Body(), &siblings); err != nil {
		return nil, fmt.Errorf("list siblings %s: decode payload: %w", modelID, err)
	}
	return siblings, nil
}

func (c *Client) ListPromotions(ctx context.Context) ([]pricing.Promotion, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/promotions")
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}

	var promotions []pricing.Promotion
	if err := decodeData(resp, &promotions); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return promotions, nil
}

// SubmitOrder posts the order and returns the created order id.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/orders")
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}

	var payload struct {
		OrderID string `json:"order_id"`
	}
	if err := decodeData(resp, &payload); err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	return payload.OrderID, nil
}
