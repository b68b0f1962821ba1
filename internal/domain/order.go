package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusRefunded   OrderStatus = "Refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "Pending"
	ReturnApproved ReturnStatus = "Approved"
	ReturnRejected ReturnStatus = "Rejected"
)

const (
	PaymentMethodOnDelivery = "Pay on Delivery"
	PaymentMethodPaystack   = "Paystack"
)

// Terminal states accept no further staff transition.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

var nextForward = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

type Address struct {
	FullName   string `json:"fullName,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// JourneyEntry is one line of the order's audit trail.
type JourneyEntry struct {
	Status  string `json:"status"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

type Order struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               string         `gorm:"size:64;index" json:"userId"`
	CustomerName         string         `gorm:"size:140" json:"customerName"`
	CustomerEmail        string         `gorm:"size:140" json:"customerEmail"`
	Date                 string         `gorm:"size:10" json:"date"`
	Time                 string         `gorm:"size:8" json:"time"`
	Status               OrderStatus    `gorm:"type:varchar(20);index" json:"status"`
	PaymentStatus        PaymentStatus  `gorm:"type:varchar(20);index" json:"paymentStatus"`
	PaymentReference     *string        `gorm:"size:120;uniqueIndex" json:"paymentReference,omitempty"`
	PaymentChannel       string         `gorm:"size:40" json:"paymentChannel,omitempty"`
	PaymentCurrency      string         `gorm:"size:8" json:"paymentCurrency,omitempty"`
	GatewayResponse      string         `gorm:"size:255" json:"gatewayResponse,omitempty"`
	Items                []CartItem     `gorm:"type:jsonb;serializer:json" json:"items"`
	ShippingAddress      Address        `gorm:"type:jsonb;serializer:json" json:"shippingAddress"`
	PaymentMethod        string         `gorm:"size:40" json:"paymentMethod"`
	Subtotal             float64        `gorm:"type:decimal(12,2)" json:"subtotal"`
	Shipping             float64        `gorm:"type:decimal(12,2)" json:"shipping"`
	Tax                  float64        `gorm:"type:decimal(12,2)" json:"tax"`
	Total                float64        `gorm:"type:decimal(12,2)" json:"total"`
	CouponCode           *string        `gorm:"size:60" json:"couponCode"`
	Discount             *float64       `gorm:"type:decimal(12,2)" json:"discount"`
	TrackingNumber       string         `gorm:"size:120" json:"trackingNumber,omitempty"`
	ReturnRequested      bool           `gorm:"not null;default:false" json:"returnRequested"`
	ReturnReason         *string        `gorm:"type:text" json:"returnReason"`
	ReturnStatus         *ReturnStatus  `gorm:"type:varchar(20)" json:"returnStatus"`
	ReturnTrackingNumber *string        `gorm:"size:120" json:"returnTrackingNumber"`
	Journey              []JourneyEntry `gorm:"type:jsonb;serializer:json" json:"journey"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

type OrderFilter struct {
	UserID   string
	Status   OrderStatus
	Page     int
	PageSize int
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotal is subtotal + shipping - discount + tax, never below zero.
func ComputeTotal(subtotal, shipping, discount, tax float64) float64 {
	t := subtotal + shipping - discount + tax
	if t < 0 {
		return 0
	}
	return Round2(t)
}

func (o *Order) DiscountAmount() float64 {
	if o.Discount == nil {
		return 0
	}
	return *o.Discount
}

func (o *Order) ExpectedTotal() float64 {
	return ComputeTotal(o.Subtotal, o.Shipping, o.DiscountAmount(), o.Tax)
}

func (o *Order) AppendJourney(status, message string, now time.Time) {
	o.Journey = append(o.Journey, JourneyEntry{
		Status:  status,
		Date:    now.UTC().Format(time.RFC3339),
		Message: message,
	})
}

// CanTransition reports whether staff may move the order to the given status.
func (o *Order) CanTransition(to OrderStatus) bool {
	if o.Status.Terminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	next, ok := nextForward[o.Status]
	return ok && next == to
}

// NextStatuses lists the transitions staff can be offered for this order.
func (o *Order) NextStatuses() []OrderStatus {
	if o.Status.Terminal() {
		return nil
	}
	out := []OrderStatus{}
	if next, ok := nextForward[o.Status]; ok {
		out = append(out, next)
	}
	return append(out, OrderStatusCancelled)
}

func (o *Order) Transition(to OrderStatus, message string, now time.Time) error {
	if !o.CanTransition(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	if to == OrderStatusDelivered && o.PaymentMethod == PaymentMethodOnDelivery {
		o.PaymentStatus = PaymentPaid
	}
	if message == "" {
		message = defaultJourneyMessage(to)
	}
	o.AppendJourney(string(to), message, now)
	return nil
}

func defaultJourneyMessage(s OrderStatus) string {
	switch s {
	case OrderStatusProcessing:
		return "Your order is being prepared"
	case OrderStatusShipped:
		return "Your order is on its way"
	case OrderStatusDelivered:
		return "Your order has been delivered"
	case OrderStatusCancelled:
		return "Your order was cancelled"
	case OrderStatusRefunded:
		return "Your return was approved and the order refunded"
	}
	return "Order updated"
}

func (o *Order) RequestReturn(reason string, now time.Time) error {
	if o.Status != OrderStatusDelivered {
		return fmt.Errorf("%w: only delivered orders can be returned", ErrInvalidTransition)
	}
	if o.ReturnRequested {
		return fmt.Errorf("%w: return already requested", ErrInvalidTransition)
	}
	pending := ReturnPending
	o.ReturnRequested = true
	o.ReturnReason = &reason
	o.ReturnStatus = &pending
	o.AppendJourney("Return Requested", reason, now)
	return nil
}

// ResolveReturn settles a pending return. Approval moves the order to Refunded;
// the caller is responsible for restocking in the same transaction.
func (o *Order) ResolveReturn(approved bool, trackingNumber string, now time.Time) error {
	if o.Status != OrderStatusDelivered || !o.ReturnRequested || o.ReturnStatus == nil || *o.ReturnStatus != ReturnPending {
		return fmt.Errorf("%w: no pending return on this order", ErrInvalidTransition)
	}
	if trackingNumber != "" {
		o.ReturnTrackingNumber = &trackingNumber
	}
	if !approved {
		st := ReturnRejected
		o.ReturnStatus = &st
		o.AppendJourney("Return Rejected", "Your return request was rejected", now)
		return nil
	}
	st := ReturnApproved
	o.ReturnStatus = &st
	o.Status = OrderStatusRefunded
	o.PaymentStatus = PaymentRefunded
	o.AppendJourney(string(OrderStatusRefunded), defaultJourneyMessage(OrderStatusRefunded), now)
	return nil
}
