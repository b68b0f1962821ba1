package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phenrril/skinstore/internal/adapters/events"
	"github.com/phenrril/skinstore/internal/domain"
)

const streamHeartbeat = 25 * time.Second

// streamFilter decides what a caller may watch on a collection. The bool is
// false when the collection is unknown or closed to the caller.
func streamFilter(caller *domain.UserProfile, collection string) (events.Filter, bool) {
	own := func(s domain.Snapshot) bool { return s.OwnerID == caller.ID }
	switch collection {
	case domain.CollectionFAQs:
		return nil, true
	case domain.CollectionProducts:
		if domain.RolePermits(caller.Role, domain.ActionManageInventory) {
			return nil, true
		}
		return publicProduct, true
	case domain.CollectionReviews:
		if domain.RolePermits(caller.Role, domain.ActionManageReviews) {
			return nil, true
		}
		return func(s domain.Snapshot) bool { return own(s) || approvedReview(s) }, true
	case domain.CollectionCoupons:
		return nil, domain.RolePermits(caller.Role, domain.ActionManageCoupons)
	case domain.CollectionOrders:
		if domain.RolePermits(caller.Role, domain.ActionManageOrders) {
			return nil, true
		}
		return own, true
	case domain.CollectionUsers:
		if domain.RolePermits(caller.Role, domain.ActionManageUsers) {
			return nil, true
		}
		return own, true
	case domain.CollectionNotifications:
		return own, true
	}
	return nil, false
}

// publicProduct passes id-only snapshots (stock moves, deletes) and products
// the storefront would show.
func publicProduct(s domain.Snapshot) bool {
	switch p := s.Doc.(type) {
	case nil:
		return true
	case *domain.Product:
		return p.Status != domain.ProductDraft && p.Status != domain.ProductArchived
	}
	return false
}

func approvedReview(s domain.Snapshot) bool {
	switch r := s.Doc.(type) {
	case nil:
		return true
	case *domain.Review:
		return r.Status == domain.ReviewApproved
	}
	return false
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	collection := chi.URLParam(r, "collection")
	filter, ok := streamFilter(caller, collection)
	if !ok {
		writeError(w, r, domain.ErrForbidden)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || s.Hub == nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}

	ch, cancel := s.Hub.Subscribe(collection, filter)
	defer cancel()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	tick := time.NewTicker(streamHeartbeat)
	defer tick.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case snap, open := <-ch:
			if !open {
				return
			}
			b, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", snap.Op, snap.ID, b)
			flusher.Flush()
		}
	}
}
