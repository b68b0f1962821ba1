package usecase

import (
	"fmt"
	"time"

	"github.com/phenrril/skinstore/internal/domain"
)

// Policy carries the store-wide business switches.
type Policy struct {
	Currency            string
	StockPolicy         domain.StockPolicy
	RedeemCouponInTx    bool
	RestockOnCancel     bool
	PointsPerUnit       float64
	RedemptionValue     float64
	MinRedeemablePoints int
}

func requireCaller(caller *domain.UserProfile) error {
	if caller == nil || caller.ID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// authorize is the single gate in front of every staff operation.
func authorize(caller *domain.UserProfile, action domain.Action) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !domain.RolePermits(caller.Role, action) {
		return fmt.Errorf("%w: %s", domain.ErrForbidden, action)
	}
	return nil
}

func nowFrom(f func() time.Time) time.Time {
	if f != nil {
		return f()
	}
	return time.Now()
}

func publish(p domain.Publisher, collection, id, op, owner string, doc any) {
	if p == nil {
		return
	}
	p.Publish(domain.Snapshot{Collection: collection, ID: id, Op: op, OwnerID: owner, Doc: doc, At: time.Now().UTC()})
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
