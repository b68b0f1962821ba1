package domain

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleEditor     Role = "editor"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEditor, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Privileged roles can only be handed out by a super-admin.
func (r Role) Privileged() bool { return r == RoleAdmin || r == RoleSuperAdmin }

type UserProfile struct {
	ID              string    `gorm:"primaryKey;size:64" json:"id"`
	Email           string    `gorm:"size:140;uniqueIndex" json:"email"`
	FullName        string    `gorm:"size:140" json:"fullName"`
	Username        string    `gorm:"size:60" json:"username,omitempty"`
	Role            Role      `gorm:"type:varchar(20);index" json:"role"`
	Points          int       `gorm:"not null;default:0" json:"points"`
	PointsTier      string    `gorm:"size:20" json:"pointsTier"`
	Wishlist        []string  `gorm:"type:jsonb;serializer:json" json:"wishlist"`
	DeliveryAddress Address   `gorm:"embedded;embeddedPrefix:delivery_" json:"deliveryAddress"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AuthIdentity is the sign-in record behind a profile.
type AuthIdentity struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"size:140;uniqueIndex"`
	PasswordHash string    `gorm:"size:100"`
	Provider     string    `gorm:"size:20"`
	CreatedAt    time.Time
}

const (
	TierBronze = "Bronze"
	TierSilver = "Silver"
	TierGold   = "Gold"
)

func TierFor(points int) string {
	switch {
	case points >= 2000:
		return TierGold
	case points >= 500:
		return TierSilver
	}
	return TierBronze
}
