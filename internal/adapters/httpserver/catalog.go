package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phenrril/skinstore/internal/domain"
)

func productFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	return domain.ProductFilter{
		Status:   domain.ProductStatus(q.Get("status")),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Sort:     q.Get("sort"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 24),
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	f := productFilter(r)
	items, total, err := s.Products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Product]{Items: items, Total: total, Page: f.Page})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	f := productFilter(r)
	items, total, err := s.Products.ListAll(r.Context(), callerFrom(r.Context()), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page[domain.Product]{Items: items, Total: total, Page: f.Page})
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !decodeJSON(w, r, &p) {
		return
	}
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, domain.ErrNotFound)
			return
		}
		p.ID = id
	}
	if err := s.Products.Save(r.Context(), callerFrom(r.Context()), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Products.Delete(r.Context(), callerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string            `json:"code"`
		Items []domain.CartItem `json:"items"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.Coupons.Validate(r.Context(), req.Code, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	items, err := s.Coupons.List(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSaveCoupon(w http.ResponseWriter, r *http.Request) {
	var c domain.Coupon
	if !decodeJSON(w, r, &c) {
		return
	}
	if code := chi.URLParam(r, "code"); code != "" {
		c.Code = code
	}
	if err := s.Coupons.Save(r.Context(), callerFrom(r.Context()), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := s.Coupons.Delete(r.Context(), callerFrom(r.Context()), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProductReviews(w http.ResponseWriter, r *http.Request) {
	p, err := s.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.Content.ProductReviews(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	p, err := s.Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	rev, err := s.Content.SubmitReview(r.Context(), callerFrom(r.Context()), p.ID, req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	items, err := s.Content.PendingReviews(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleApproveReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rev, err := s.Content.ApproveReview(r.Context(), callerFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Content.DeleteReview(r.Context(), callerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFAQs(w http.ResponseWriter, r *http.Request) {
	items, err := s.Content.FAQList(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSaveFAQ(w http.ResponseWriter, r *http.Request) {
	var f domain.FAQ
	if !decodeJSON(w, r, &f) {
		return
	}
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, domain.ErrNotFound)
			return
		}
		f.ID = id
	}
	if err := s.Content.SaveFAQ(r.Context(), callerFrom(r.Context()), &f); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.Content.DeleteFAQ(r.Context(), callerFrom(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
