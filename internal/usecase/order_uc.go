package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

type OrderUC struct {
	Orders domain.OrderRepo
	Users  domain.UserRepo
	Mailer domain.Mailer
	Notify *Notifier
	Events domain.Publisher
	Policy Policy
	Now    func() time.Time
}

type AdvanceOpts struct {
	TrackingNumber string
	Message        string
}

// Advance applies a staff status change and its side effects.
func (uc *OrderUC) Advance(ctx context.Context, staff *domain.UserProfile, id uuid.UUID, to domain.OrderStatus, opts AdvanceOpts) (*domain.Order, error) {
	if err := authorize(staff, domain.ActionManageOrders); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, invalid("unknown order status")
	}
	restock := to == domain.OrderStatusCancelled && uc.Policy.RestockOnCancel
	o, err := uc.Orders.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if err := o.Transition(to, strings.TrimSpace(opts.Message), nowFrom(uc.Now)); err != nil {
			return false, err
		}
		if to == domain.OrderStatusShipped && strings.TrimSpace(opts.TrackingNumber) != "" {
			o.TrackingNumber = strings.TrimSpace(opts.TrackingNumber)
		}
		return restock, nil
	})
	if err != nil {
		return nil, err
	}
	zlog.Info().Str("order_id", o.ID.String()).Str("status", string(o.Status)).Str("by", staff.ID).Msg("order status changed")

	if to == domain.OrderStatusDelivered {
		uc.creditPoints(ctx, o)
	}
	if uc.Notify != nil {
		uc.Notify.OrderStatusChanged(ctx, o)
	}
	uc.announce(o, "status", restock)
	return o, nil
}

func (uc *OrderUC) creditPoints(ctx context.Context, o *domain.Order) {
	if uc.Users == nil || o.UserID == "" || uc.Policy.PointsPerUnit <= 0 {
		return
	}
	pts := int(math.Floor(o.Total * uc.Policy.PointsPerUnit))
	if pts <= 0 {
		return
	}
	u, err := uc.Users.AddPoints(ctx, o.UserID, pts)
	if err != nil {
		zlog.Error().Err(err).Str("order_id", o.ID.String()).Str("user_id", o.UserID).Msg("loyalty points not credited")
		return
	}
	publish(uc.Events, domain.CollectionUsers, u.ID, "points", u.ID, u)
}

func (uc *OrderUC) RequestReturn(ctx context.Context, caller *domain.UserProfile, id uuid.UUID, reason string) (*domain.Order, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("tell us why you are returning the order")
	}
	o, err := uc.Orders.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if o.UserID != caller.ID {
			return false, domain.ErrNotFound
		}
		return false, o.RequestReturn(reason, nowFrom(uc.Now))
	})
	if err != nil {
		return nil, err
	}
	uc.announce(o, "return", false)
	return o, nil
}

// ResolveReturn approves or rejects a pending return. Approval puts every
// line back in stock in the same transaction that saves the order.
func (uc *OrderUC) ResolveReturn(ctx context.Context, staff *domain.UserProfile, id uuid.UUID, approved bool, trackingNumber string) (*domain.Order, error) {
	if err := authorize(staff, domain.ActionManageOrders); err != nil {
		return nil, err
	}
	o, err := uc.Orders.Update(ctx, id, func(o *domain.Order) (bool, error) {
		if err := o.ResolveReturn(approved, strings.TrimSpace(trackingNumber), nowFrom(uc.Now)); err != nil {
			return false, err
		}
		return approved, nil
	})
	if err != nil {
		return nil, err
	}
	if uc.Notify != nil {
		if approved {
			uc.Notify.Notify(ctx, o.UserID, &o.ID, "Return approved", "Your return was approved and a refund is on its way.")
		} else {
			uc.Notify.Notify(ctx, o.UserID, &o.ID, "Return rejected", "Your return request was not approved.")
		}
	}
	uc.announce(o, "return", approved)
	return o, nil
}

func (uc *OrderUC) announce(o *domain.Order, op string, stockChanged bool) {
	publish(uc.Events, domain.CollectionOrders, o.ID.String(), op, o.UserID, o)
	if !stockChanged {
		return
	}
	for _, pid := range domain.ProductIDs(o.Items) {
		publish(uc.Events, domain.CollectionProducts, pid.String(), "stock", "", nil)
	}
}

// Get returns the order to its owner or to staff who manage orders.
func (uc *OrderUC) Get(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) (*domain.Order, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	o, err := uc.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != caller.ID && !domain.RolePermits(caller.Role, domain.ActionManageOrders) {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (uc *OrderUC) ListMine(ctx context.Context, caller *domain.UserProfile, page, pageSize int) ([]domain.Order, int64, error) {
	if err := requireCaller(caller); err != nil {
		return nil, 0, err
	}
	return uc.Orders.List(ctx, domain.OrderFilter{UserID: caller.ID, Page: page, PageSize: pageSize})
}

func (uc *OrderUC) List(ctx context.Context, staff *domain.UserProfile, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if err := authorize(staff, domain.ActionManageOrders); err != nil {
		return nil, 0, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalid("unknown order status")
	}
	return uc.Orders.List(ctx, f)
}

// All pages through every order matching the filter, for exports.
func (uc *OrderUC) All(ctx context.Context, staff *domain.UserProfile, f domain.OrderFilter) ([]domain.Order, error) {
	f.PageSize = 200
	out := []domain.Order{}
	for page := 1; ; page++ {
		f.Page = page
		list, total, err := uc.List(ctx, staff, f)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
		if len(list) == 0 || int64(len(out)) >= total {
			return out, nil
		}
	}
}

func (uc *OrderUC) Delete(ctx context.Context, staff *domain.UserProfile, id uuid.UUID) error {
	if err := authorize(staff, domain.ActionDeleteOrders); err != nil {
		return err
	}
	if err := uc.Orders.Delete(ctx, id); err != nil {
		return err
	}
	zlog.Warn().Str("order_id", id.String()).Str("by", staff.ID).Msg("order deleted")
	publish(uc.Events, domain.CollectionOrders, id.String(), "delete", "", nil)
	return nil
}

// SendEmail renders and sends one of the order emails on request.
func (uc *OrderUC) SendEmail(ctx context.Context, caller *domain.UserProfile, kind domain.EmailKind, id uuid.UUID) error {
	if !kind.Valid() {
		return invalid(fmt.Sprintf("unknown email type %q", kind))
	}
	o, err := uc.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if uc.Mailer == nil {
		return fmt.Errorf("mailer not configured")
	}
	return uc.Mailer.SendOrderEmail(ctx, kind, o)
}
