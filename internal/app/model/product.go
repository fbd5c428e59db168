package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Image       string    `json:"image"` // path inside the product bucket
	ImageURL    string    `gorm:"-" json:"image_url,omitempty"`
	CategoryID  uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	Description string    `gorm:"type:text" json:"description"`
	Advantage   string    `gorm:"type:text" json:"advantage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Category      *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Socials       []Social       `gorm:"foreignKey:ProductID" json:"socials,omitempty"`
	ProductBrands []ProductBrand `gorm:"foreignKey:ProductID" json:"-"`

	// Compatible is derived from ProductBrands on read and never persisted.
	Compatible []Compatible `gorm:"-" json:"compatible,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Social is a social-media entry owned by exactly one product.
type Social struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Name        string    `json:"name"`
	Link        string    `json:"link"`
	EmbededCode string    `gorm:"column:embeded_code;type:text" json:"embeded_code"`
	Position    int       `json:"-"`
}

func (Social) TableName() string {
	return "socials"
}

func (s *Social) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// ProductBrand links a product to a brand it is compatible with.
type ProductBrand struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	BrandID   uuid.UUID `gorm:"type:uuid;not null;index" json:"brand_id"`
	Position  int       `json:"-"`

	Brand      *Brand      `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	BrandTypes []BrandType `gorm:"foreignKey:ProductBrandID" json:"brand_types,omitempty"`
}

func (ProductBrand) TableName() string {
	return "product_brands"
}

func (pb *ProductBrand) BeforeCreate(tx *gorm.DB) error {
	ensureID(&pb.ID)
	return nil
}

// BrandType is a compatibility tag scoped to one ProductBrand row.
type BrandType struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductBrandID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_brand_id"`
	Type           string    `gorm:"not null" json:"type"`
	Position       int       `json:"-"`
}

func (BrandType) TableName() string {
	return "brand_types"
}

func (bt *BrandType) BeforeCreate(tx *gorm.DB) error {
	ensureID(&bt.ID)
	return nil
}

// Compatible is the flattened view of one ProductBrand and its BrandTypes.
// ID is only unique within one read of a product.
type Compatible struct {
	ID        string    `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	BrandName string    `json:"brand_name,omitempty"`
	Types     string    `json:"types"`
}

// SplitTypes explodes a comma-joined type list, trimming pieces and
// dropping empty ones. The result is normalised, not a plain comma split:
// "Avanza, Xenia" gives ["Avanza" "Xenia"] and "" gives no types.
func SplitTypes(types string) []string {
	parts := strings.Split(types, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// BuildCompatibles reshapes loaded ProductBrand rows into the Compatible
// view, one entry per row in position order.
func BuildCompatibles(productBrands []ProductBrand) []Compatible {
	compatibles := make([]Compatible, 0, len(productBrands))
	for i, pb := range productBrands {
		types := make([]string, 0, len(pb.BrandTypes))
		for _, bt := range pb.BrandTypes {
			types = append(types, bt.Type)
		}

		c := Compatible{
			ID:      fmt.Sprintf("%s-%d", pb.BrandID, i),
			BrandID: pb.BrandID,
			Types:   strings.Join(types, ","),
		}
		if pb.Brand != nil {
			c.BrandName = pb.Brand.Name
		}
		compatibles = append(compatibles, c)
	}
	return compatibles
}
