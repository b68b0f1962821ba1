package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type StockPolicy string

const (
	// StockClamp floors stock at zero when an order asks for more than is left.
	StockClamp StockPolicy = "clamp"
	// StockReject fails the whole order instead.
	StockReject StockPolicy = "reject"
)

type StockDirection int

const (
	StockDecrement StockDirection = -1
	StockIncrement StockDirection = 1
)

// ApplyStock adjusts the loaded products for every order line and returns the
// ids of the products that changed. Lines pointing at a product that is not in
// the map, or at a variant the product no longer has, are skipped. Several lines
// on the same product all land on the same document.
func ApplyStock(products map[uuid.UUID]*Product, items []CartItem, dir StockDirection, policy StockPolicy) ([]uuid.UUID, error) {
	changed := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	for _, it := range items {
		p := products[it.ProductID]
		if p == nil || it.Quantity <= 0 {
			continue
		}
		if it.SelectedVariant != nil {
			idx := p.VariantIndex(it.SelectedVariant.ID)
			if idx < 0 {
				continue
			}
			v := &p.Variants[idx]
			next, err := adjustStock(v.Stock, it.Quantity, dir, policy)
			if err != nil {
				return nil, fmt.Errorf("%w: %s (%s)", err, p.Name, v.Name)
			}
			v.Stock = next
			p.SyncStockFromVariants()
		} else {
			if p.HasVariants() {
				continue
			}
			if p.Stock == nil {
				if dir == StockDecrement {
					continue
				}
				zero := 0
				p.Stock = &zero
			}
			next, err := adjustStock(*p.Stock, it.Quantity, dir, policy)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", err, p.Name)
			}
			p.Stock = &next
		}
		if !seen[p.ID] {
			seen[p.ID] = true
			changed = append(changed, p.ID)
		}
	}
	return changed, nil
}

func adjustStock(current, qty int, dir StockDirection, policy StockPolicy) (int, error) {
	if dir == StockIncrement {
		return current + qty, nil
	}
	if current < qty {
		if policy == StockReject {
			return current, ErrInsufficientStock
		}
		return 0, nil
	}
	return current - qty, nil
}

// ProductIDs returns the distinct product ids referenced by the items, in order.
func ProductIDs(items []CartItem) []uuid.UUID {
	ids := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	for _, it := range items {
		if it.ProductID == uuid.Nil || seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}
	return ids
}
