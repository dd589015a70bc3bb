package models

import "time"

// Service is a bookable offering owned by a service provider. Identity is
// immutable; attributes are editable by admins.
type Service struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string    `json:"category" gorm:"size:100"`
	Image       string    `json:"image" gorm:"size:500"`
	ProviderID  *uint     `json:"provider_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Provider *User `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

// TableName specifies the table name for the Service model
func (Service) TableName() string {
	return "services"
}
