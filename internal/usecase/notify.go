package usecase

import (
	"context"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/skinstore/internal/domain"
)

// Notifier sends the transactional email and the in-app notification that go
// with an order event. Failures are logged and swallowed.
type Notifier struct {
	Mailer        domain.Mailer
	Notifications domain.NotificationRepo
	Events        domain.Publisher
}

func (n *Notifier) OrderStatusChanged(ctx context.Context, o *domain.Order) {
	switch o.Status {
	case domain.OrderStatusShipped:
		n.email(ctx, domain.EmailShippingNotice, o)
		n.Notify(ctx, o.UserID, &o.ID, "Order shipped", shippedMessage(o))
	case domain.OrderStatusDelivered:
		n.email(ctx, domain.EmailDeliveryConfirmation, o)
		n.Notify(ctx, o.UserID, &o.ID, "Order delivered", "Your order has been delivered. Enjoy!")
	}
}

func shippedMessage(o *domain.Order) string {
	if o.TrackingNumber != "" {
		return "Your order is on its way. Tracking number: " + o.TrackingNumber
	}
	return "Your order is on its way."
}

func (n *Notifier) email(ctx context.Context, kind domain.EmailKind, o *domain.Order) {
	if n == nil || n.Mailer == nil {
		return
	}
	if err := n.Mailer.SendOrderEmail(ctx, kind, o); err != nil {
		zlog.Error().Err(err).Str("order_id", o.ID.String()).Str("kind", string(kind)).Msg("order email failed")
	}
}

func (n *Notifier) Notify(ctx context.Context, userID string, orderID *uuid.UUID, title, message string) {
	if n == nil || n.Notifications == nil || userID == "" {
		return
	}
	note := &domain.Notification{UserID: userID, OrderID: orderID, Title: title, Message: message}
	if err := n.Notifications.Create(ctx, note); err != nil {
		zlog.Error().Err(err).Str("user_id", userID).Msg("in-app notification failed")
		return
	}
	publish(n.Events, domain.CollectionNotifications, note.ID.String(), "create", userID, note)
}

func (n *Notifier) List(ctx context.Context, caller *domain.UserProfile) ([]domain.Notification, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return n.Notifications.ListForUser(ctx, caller.ID)
}

func (n *Notifier) MarkRead(ctx context.Context, caller *domain.UserProfile, id uuid.UUID) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := n.Notifications.MarkRead(ctx, id, caller.ID); err != nil {
		return err
	}
	publish(n.Events, domain.CollectionNotifications, id.String(), "read", caller.ID, nil)
	return nil
}
