package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepo interface {
	Save(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	List(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PlaceOptions tune the stock transaction run at order placement.
type PlaceOptions struct {
	Policy StockPolicy
	// RedeemCouponInTx counts the coupon use inside the stock transaction and
	// refuses the order when the coupon is already used up.
	RedeemCouponInTx bool
}

type OrderRepo interface {
	// PlaceWithStock decrements stock for every line and inserts the order,
	// all or nothing.
	PlaceWithStock(ctx context.Context, o *Order, opts PlaceOptions) error
	// Update locks the order row and hands the stored copy to change. The order
	// is saved only when change succeeds. When change asks for a restock every
	// line goes back into stock in the same transaction.
	Update(ctx context.Context, id uuid.UUID, change func(o *Order) (restock bool, err error)) (*Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByPaymentReference(ctx context.Context, ref string) (*Order, error)
	List(ctx context.Context, f OrderFilter) ([]Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CouponRepo interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Save(ctx context.Context, c *Coupon) error
	List(ctx context.Context) ([]Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}

// Profile columns written by Update.
var (
	ProfileRoleColumns     = []string{"role"}
	ProfileWishlistColumns = []string{"wishlist"}
	ProfileDetailColumns   = []string{
		"full_name", "username",
		"delivery_full_name", "delivery_phone", "delivery_line1", "delivery_line2",
		"delivery_city", "delivery_region", "delivery_country", "delivery_postal_code",
	}
)

type UserRepo interface {
	FindByID(ctx context.Context, id string) (*UserProfile, error)
	FindByEmail(ctx context.Context, email string) (*UserProfile, error)
	FindIdentityByEmail(ctx context.Context, email string) (*AuthIdentity, error)
	CreateWithIdentity(ctx context.Context, ident *AuthIdentity, p *UserProfile) error
	// Update locks the profile, applies change and writes back only the
	// named columns. Points and tier move only through AddPoints and
	// RedeemPoints.
	Update(ctx context.Context, id string, change func(p *UserProfile) error, columns ...string) (*UserProfile, error)
	List(ctx context.Context) ([]UserProfile, error)
	AddPoints(ctx context.Context, id string, delta int) (*UserProfile, error)
	// RedeemPoints deducts points and stores the reward coupon together.
	RedeemPoints(ctx context.Context, id string, points int, reward *Coupon) (*UserProfile, error)
}

type ReviewRepo interface {
	Save(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, onlyApproved bool) ([]Review, error)
	ListByStatus(ctx context.Context, status ReviewStatus) ([]Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type FAQRepo interface {
	Save(ctx context.Context, f *FAQ) error
	FindByID(ctx context.Context, id uuid.UUID) (*FAQ, error)
	List(ctx context.Context) ([]FAQ, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
}

// PaymentVerification is what the processor reports for a reference.
// Amount is in the smallest currency unit.
type PaymentVerification struct {
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	Amount          float64    `json:"amount"`
	Currency        string     `json:"currency"`
	Channel         string     `json:"channel"`
	GatewayResponse string     `json:"gatewayResponse"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}

type PaymentGateway interface {
	Verify(ctx context.Context, reference string) (*PaymentVerification, error)
}

type EmailKind string

const (
	EmailOrderConfirmation    EmailKind = "order_confirmation"
	EmailShippingNotice       EmailKind = "shipping_notice"
	EmailDeliveryConfirmation EmailKind = "delivery_confirmation"
)

func (k EmailKind) Valid() bool {
	switch k {
	case EmailOrderConfirmation, EmailShippingNotice, EmailDeliveryConfirmation:
		return true
	}
	return false
}

type Mailer interface {
	SendOrderEmail(ctx context.Context, kind EmailKind, o *Order) error
}

const (
	CollectionProducts      = "products"
	CollectionOrders        = "orders"
	CollectionCoupons       = "coupons"
	CollectionNotifications = "notifications"
	CollectionReviews       = "reviews"
	CollectionFAQs          = "faqs"
	CollectionUsers         = "users"
)

// Snapshot is the latest state of one document after a committed change.
type Snapshot struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	OwnerID    string    `json:"-"`
	Doc        any       `json:"doc,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(s Snapshot)
}
