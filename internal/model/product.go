package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UniqueProductPerTenant is the name of the (tenant_id, name) unique index.
const UniqueProductPerTenant = "unique_product_per_tenant"

type Product struct {
	BaseModel
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:unique_product_per_tenant,priority:1"`
	Tenant      *Tenant         `gorm:"constraint:OnDelete:CASCADE"`
	Name        string          `gorm:"type:varchar(255);not null;index;uniqueIndex:unique_product_per_tenant,priority:2"`
	Description *string         `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null;check:price >= 0"`
	Quantity    int64           `gorm:"not null;check:quantity >= 0"`
}

// ProductResponse is the read view. Tenant is rendered by name.
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Tenant      string    `json:"tenant"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	Quantity    int64     `json:"quantity"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

// ToResponse converts Product to ProductResponse. Tenant must be loaded for the
// tenant name to be filled.
func (p *Product) ToResponse() ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		Created:     p.CreatedAt,
		Modified:    p.UpdatedAt,
	}
	if p.Tenant != nil {
		resp.Tenant = p.Tenant.Name
	}
	return resp
}
