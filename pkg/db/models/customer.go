package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a buyer that orders may reference.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     *string   `gorm:"column:email"`
	Phone     *string   `gorm:"column:phone"`
	Address   *string   `gorm:"column:address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
