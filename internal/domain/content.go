package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
)

type Review struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID    `gorm:"type:uuid;index" json:"productId"`
	UserID    string       `gorm:"size:64;index" json:"userId"`
	UserName  string       `gorm:"size:140" json:"userName"`
	Rating    int          `gorm:"not null" json:"rating"`
	Comment   string       `gorm:"type:text" json:"comment"`
	Status    ReviewStatus `gorm:"type:varchar(20);index" json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type FAQ struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Question  string    `gorm:"type:text" json:"question"`
	Answer    string    `gorm:"type:text" json:"answer"`
	Category  string    `gorm:"size:80" json:"category,omitempty"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string     `gorm:"size:64;index" json:"userId"`
	OrderID   *uuid.UUID `gorm:"type:uuid" json:"orderId,omitempty"`
	Title     string     `gorm:"size:140" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	Read      bool       `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
}
