package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Certificate struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Image         string    `json:"image"` // path inside the certificate bucket
	ImageURL      string    `gorm:"-" json:"image_url,omitempty"`
	DescriptionID string    `gorm:"type:text" json:"description_id"`
	DescriptionEN string    `gorm:"column:description_en;type:text" json:"description_en"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
