package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reading is a single recorded blood-glucose measurement with its context.
// Date and Time are free-text fields entered by the user and are not
// validated as calendar values; they are only combined at analysis time.
type Reading struct {
	ID          uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Date        string    `gorm:"size:20;not null" json:"date"`
	Time        string    `gorm:"size:20;not null" json:"time"`
	BloodSugar  float64   `gorm:"not null" json:"bloodSugar"`
	Age         string    `gorm:"size:10;not null" json:"age"`
	Type        string    `gorm:"size:20;not null;default:'food'" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	Condition   string    `gorm:"size:20;not null;default:'normal'" json:"condition"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
