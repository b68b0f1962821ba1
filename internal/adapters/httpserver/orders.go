package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
	"github.com/phenrril/skinstore/internal/usecase"
)

func pathUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeError(w, r, domain.ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handlePaystackVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference  string             `json:"reference"`
		OrderDraft usecase.OrderDraft `json:"orderDraft"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.Payments.VerifyAndPlace(r.Context(), callerFrom(r.Context()), req.Reference, req.OrderDraft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orderId": id})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var d usecase.OrderDraft
	if !decodeJSON(w, r, &d) {
		return
	}
	id, err := s.Checkout.PlaceCashOnDelivery(r.Context(), callerFrom(r.Context()), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "orderId": id})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	pg := queryInt(r, "page", 1)
	items, total, err := s.Orders.ListMine(r.Context(), callerFrom(r.Context()), pg, queryInt(r, "pageSize", 20))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Order]{Items: items, Total: total, Page: pg})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	o, err := s.Orders.Get(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleRequestReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.Orders.RequestReturn(r.Context(), callerFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleSendOrderEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type    domain.EmailKind `json:"type"`
		OrderID string           `json:"orderId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		badRequest(w, "orderId is required")
		return
	}
	if err := s.Orders.SendEmail(r.Context(), callerFrom(r.Context()), req.Type, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func orderFilter(r *http.Request) domain.OrderFilter {
	q := r.URL.Query()
	return domain.OrderFilter{
		UserID:   q.Get("userId"),
		Status:   domain.OrderStatus(q.Get("status")),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 50),
	}
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	f := orderFilter(r)
	items, total, err := s.Orders.List(r.Context(), callerFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Order]{Items: items, Total: total, Page: f.Page})
}

func (s *Server) handleAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status         domain.OrderStatus `json:"status"`
		TrackingNumber string             `json:"trackingNumber"`
		Message        string             `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.Orders.Advance(r.Context(), callerFrom(r.Context()), id, req.Status, usecase.AdvanceOpts{
		TrackingNumber: req.TrackingNumber,
		Message:        req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleResolveReturn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Approved       bool   `json:"approved"`
		TrackingNumber string `json:"trackingNumber"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.Orders.ResolveReturn(r.Context(), callerFrom(r.Context()), id, req.Approved, req.TrackingNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Orders.Delete(r.Context(), callerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
