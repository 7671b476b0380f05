package catalog

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is the storefront's view of a sellable item. The support core only
// reads it during knowledge ingestion; order and checkout flows live in the
// storefront services.
type Product struct {
	SKU         string
	Name        string
	Description string
	Price       float64
	Stock       int
	Images      []string
	Category    string
	Benefits    []string
	VariantName string
}

// Catalog lists active products for knowledge ingestion.
type Catalog interface {
	ListActiveProducts(ctx context.Context) ([]Product, error)
}

// productRow maps the storefront's products table. The schema is owned by the
// storefront; this model is read-only here.
type productRow struct {
	SKU         string         `gorm:"column:sku"`
	Name        string         `gorm:"column:name"`
	Description string         `gorm:"column:description"`
	Price       float64        `gorm:"column:price"`
	Stock       int            `gorm:"column:stock"`
	Images      pq.StringArray `gorm:"column:images;type:text[]"`
	Category    string         `gorm:"column:category"`
	Benefits    pq.StringArray `gorm:"column:benefits;type:text[]"`
	VariantName string         `gorm:"column:variant_name"`
	IsActive    bool           `gorm:"column:is_active"`
}

func (productRow) TableName() string {
	return "products"
}

// GormCatalog reads the storefront products table.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) ListActiveProducts(ctx context.Context) ([]Product, error) {
	var rows []productRow
	if err := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sku ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}

	products := make([]Product, len(rows))
	for i, r := range rows {
		products[i] = Product{
			SKU:         r.SKU,
			Name:        r.Name,
			Description: r.Description,
			Price:       r.Price,
			Stock:       r.Stock,
			Images:      r.Images,
			Category:    r.Category,
			Benefits:    r.Benefits,
			VariantName: r.VariantName,
		}
	}
	return products, nil
}

// StaticCatalog serves a fixed product list. Used in tests and local runs
// without a storefront database.
type StaticCatalog struct {
	Products []Product
}

func (c *StaticCatalog) ListActiveProducts(ctx context.Context) ([]Product, error) {
	return c.Products, nil
}
