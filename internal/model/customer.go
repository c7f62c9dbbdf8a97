package model

// Customer 客户表 — 对应 customers
type Customer struct {
	CustomerID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"customer_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	ContactName  string `gorm:"type:varchar(100)"                              json:"contact_name,omitempty"`
	ContactPhone string `gorm:"type:varchar(30)"                               json:"contact_phone,omitempty"`
	ContactEmail string `gorm:"type:varchar(255)"                              json:"contact_email,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Customer) TableName() string { return "customers" }
