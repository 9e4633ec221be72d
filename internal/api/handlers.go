package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/example/storefront-view/internal/catalog"
	"github.com/example/storefront-view/internal/checkout"
	"github.com/example/storefront-view/internal/detail"
	"github.com/example/storefront-view/internal/events"
	"github.com/example/storefront-view/internal/pricing"
	"github.com/example/storefront-view/internal/session"
	"github.com/example/storefront-view/internal/upstream"
)

type Handlers struct {
	registry  *SessionRegistry
	publisher events.Publisher
}

func NewHandlers(registry *SessionRegistry, publisher events.Publisher) *Handlers {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handlers{
		registry:  registry,
		publisher: publisher,
	}
}

// Session lifecycle

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Brand    string `json:"brand"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}

	sess := h.registry.Create()
	sess.Catalog.SetScope(sess.Context(), req.Category, req.Brand)

	respondJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"view":       sess.Catalog.View(),
	})
}

// SessionRoute dispatches everything under /sessions/{id}/.
func (h *Handlers) SessionRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.SplitN(rest, "/", 2)

	sess, ok := h.registry.Get(parts[0])
	if !ok {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodDelete:
		h.DeleteSession(w, sess)

	case sub == "catalog" && r.Method == http.MethodGet:
		h.GetCatalog(w, r, sess)
	case sub == "catalog/scope" && r.Method == http.MethodPost:
		h.SetScope(w, r, sess)
	case sub == "catalog/page" && r.Method == http.MethodPost:
		h.GotoPage(w, r, sess)
	case sub == "catalog/page-size" && r.Method == http.MethodPost:
		h.SetPageSize(w, r, sess)
	case sub == "catalog/sort" && r.Method == http.MethodPost:
		h.SetSort(w, r, sess)
	case sub == "catalog/filters" && r.Method == http.MethodPost:
		h.StageFilter(w, r, sess)
	case sub == "catalog/filters/price" && r.Method == http.MethodPost:
		h.StagePriceRange(w, r, sess)
	case sub == "catalog/filters/apply" && r.Method == http.MethodPost:
		h.ApplyFilters(w, r, sess)
	case sub == "catalog/filters/clear" && r.Method == http.MethodPost:
		h.ClearFilters(w, r, sess)

	case sub == "detail" && r.Method == http.MethodGet:
		h.GetDetail(w, sess)
	case sub == "detail/load" && r.Method == http.MethodPost:
		h.LoadDetail(w, r, sess)
	case sub == "detail/variant" && r.Method == http.MethodPost:
		h.SelectVariant(w, r, sess)
	case sub == "detail/thumbnail" && r.Method == http.MethodPost:
		h.SelectThumbnail(w, r, sess)

	case sub == "checkout" && r.Method == http.MethodGet:
		h.GetCheckout(w, sess)
	case sub == "checkout/lines" && r.Method == http.MethodPost:
		h.SetLines(w, r, sess)
	case sub == "checkout/lines/toggle" && r.Method == http.MethodPost:
		h.ToggleLine(w, r, sess)
	case sub == "checkout/promotions/refresh" && r.Method == http.MethodPost:
		h.RefreshPromotions(w, sess)
	case sub == "checkout/promotion" && r.Method == http.MethodPost:
		h.ApplyPromotion(w, r, sess)
	case sub == "checkout/promotion" && r.Method == http.MethodDelete:
		h.RemovePromotion(w, sess)
	case sub == "checkout/shipping" && r.Method == http.MethodPost:
		h.SetShipping(w, r, sess)
	case sub == "checkout/payment" && r.Method == http.MethodPost:
		h.SetPayment(w, r, sess)
	case sub == "checkout/submit" && r.Method == http.MethodPost:
		h.SubmitOrder(w, r, sess)

	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handlers) DeleteSession(w http.ResponseWriter, sess *Session) {
	h.registry.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Catalog handlers

func (h *Handlers) GetCatalog(w http.ResponseWriter, r *http.Request, sess *Session) {
	user := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"view":            sess.Catalog.View(),
		"draft_filters":   sess.Catalog.Draft(),
		"applied_filters": sess.Catalog.Applied(),
		"can_favourite":   user.CanFavourite(),
	})
}

func (h *Handlers) SetScope(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Category string `json:"category"`
		Brand    string `json:"brand"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Category == "" {
		respondError(w, http.StatusBadRequest, "category is required")
		return
	}

	sess.Catalog.SetScope(sess.Context(), req.Category, req.Brand)
	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

func (h *Handlers) GotoPage(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Catalog.GotoPage(sess.Context(), req.Page); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

func (h *Handlers) SetPageSize(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Catalog.SetPageSize(sess.Context(), req.Size); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Sort string `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Catalog.SetSort(catalog.Sort(req.Sort)); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

func (h *Handlers) StageFilter(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Catalog.StageFilter(req.Name, req.Values); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Catalog.Draft())
}

func (h *Handlers) StagePriceRange(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Min *int `json:"min"`
		Max *int `json:"max"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rng *catalog.PriceRange
	switch {
	case req.Min == nil && req.Max == nil:
		// null bounds clear the staged range
	case req.Min == nil || req.Max == nil:
		respondError(w, http.StatusBadRequest, "price range needs both min and max")
		return
	default:
		rng = &catalog.PriceRange{Min: *req.Min, Max: *req.Max}
	}
	if err := sess.Catalog.StagePriceRange(rng); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Catalog.Draft())
}

func (h *Handlers) ApplyFilters(w http.ResponseWriter, r *http.Request, sess *Session) {
	sess.Catalog.ApplyFilters(sess.Context())

	filter := sess.Catalog.FilterRequest()
	event := events.SearchPerformed{
		Category:   filter.Category,
		Brand:      filter.Brand,
		Attributes: filter.Attributes,
		At:         time.Now(),
	}
	if err := h.publisher.Publish(r.Context(), sess.ID, event); err != nil {
		log.Printf("[API] search event publish failed: %v", err)
	}

	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

func (h *Handlers) ClearFilters(w http.ResponseWriter, r *http.Request, sess *Session) {
	sess.Catalog.ClearFilters(sess.Context())
	respondJSON(w, http.StatusOK, sess.Catalog.View())
}

// Detail handlers

func (h *Handlers) LoadDetail(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	if err := sess.Detail.Load(sess.Context(), req.ProductID); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Detail.Snapshot())
}

func (h *Handlers) GetDetail(w http.ResponseWriter, sess *Session) {
	respondJSON(w, http.StatusOK, sess.Detail.Snapshot())
}

func (h *Handlers) SelectVariant(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	selection, err := sess.Detail.SelectVariant(req.Index)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, selection)
}

func (h *Handlers) SelectThumbnail(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	selection, err := sess.Detail.SelectThumbnail(req.Index)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, selection)
}

// Checkout handlers

func (h *Handlers) GetCheckout(w http.ResponseWriter, sess *Session) {
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) SetLines(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Lines []struct {
			ItemID   string `json:"item_id"`
			Price    int    `json:"price"`
			Quantity int    `json:"quantity"`
		} `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]pricing.LineItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, pricing.LineItem{
			ItemID:   l.ItemID,
			Price:    l.Price,
			Quantity: l.Quantity,
			Included: true,
		})
	}
	sess.Checkout.SetLines(lines)
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) ToggleLine(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		ItemID   string `json:"item_id"`
		Included bool   `json:"included"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Checkout.ToggleLine(req.ItemID, req.Included); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) RefreshPromotions(w http.ResponseWriter, sess *Session) {
	sess.Checkout.LoadPromotions(sess.Context())
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) ApplyPromotion(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.Checkout.ApplyPromotion(req.Code); err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) RemovePromotion(w http.ResponseWriter, sess *Session) {
	sess.Checkout.RemovePromotion()
	respondJSON(w, http.StatusOK, sess.Checkout.Snapshot())
}

func (h *Handlers) SetShipping(w http.ResponseWriter, r *http.Request, sess *Session) {
	var addr upstream.ShippingAddress
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Checkout.SetShippingAddress(addr)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetPayment(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Checkout.SetPaymentMethod(req.Method)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SubmitOrder(w http.ResponseWriter, r *http.Request, sess *Session) {
	user := session.FromContext(r.Context())

	orderID, err := sess.Checkout.Submit(r.Context(), user.UserID)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"order_id": orderID,
		"totals":   sess.Checkout.Totals(),
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps domain errors onto HTTP statuses. Ineligible
// promotions carry their shortfall so the UI can say how much more to add.
func respondFailure(w http.ResponseWriter, err error) {
	var ineligible *pricing.IneligibleError
	var apiErr *upstream.APIError

	switch {
	case errors.As(err, &ineligible):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":     ineligible.Error(),
			"shortfall": ineligible.Shortfall,
		})
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		respondError(w, status, apiErr.Message)
	case errors.Is(err, detail.ErrNoProduct),
		errors.Is(err, checkout.ErrUnknownLine),
		errors.Is(err, checkout.ErrUnknownPromotion):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}
