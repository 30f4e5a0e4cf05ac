package model

// Tenant is an isolated organization owning users and products.
// Deleting a tenant cascades to both through the foreign keys declared on User and Product.
type Tenant struct {
	BaseModel
	Name     string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Address  *string `gorm:"type:text" json:"address"`
	Contact  *string `gorm:"type:varchar(255)" json:"contact"`
	Location *string `gorm:"type:varchar(255)" json:"location"`
}

func (t *Tenant) String() string {
	return t.Name
}
