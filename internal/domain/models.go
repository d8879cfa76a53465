package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NewUser struct {
	Username     string
	PasswordHash string
}

type UpdateUser struct {
	Username     *string
	PasswordHash *string
}

type Role struct {
	RoleID      int64           `json:"role_id"`
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Permission  PermissionLevel `json:"permission"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type NewRole struct {
	UserID      int64
	Name        string
	Description *string
	Permission  PermissionLevel
}

type UpdateRole struct {
	Name        *string
	Description *string
	Permission  *PermissionLevel
}

type Product struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURI    *string         `json:"image_uri,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type NewProduct struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	ImageURI    *string
}

type UpdateProduct struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURI    *string
}

type Category struct {
	CategoryID  int64     `json:"category_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewCategory struct {
	Name        string
	Description *string
}

type UpdateCategory struct {
	Name        *string
	Description *string
}

// CategoryView is the response shape of a category. ID and timestamps are nil
// when the caller was not granted through an admin role.
type CategoryView struct {
	CategoryID  *int64     `json:"category_id,omitempty"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func NewCategoryView(c Category) CategoryView {
	id, created, updated := c.CategoryID, c.CreatedAt, c.UpdatedAt
	return CategoryView{
		CategoryID:  &id,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
}

func (v *CategoryView) Redact() {
	v.CategoryID = nil
	v.CreatedAt = nil
	v.UpdatedAt = nil
}

type ProductCategoryKey struct {
	ProductID  int64 `json:"product_id"`
	CategoryID int64 `json:"category_id"`
}

// ProductCategory links a product to a category. It owns nothing beyond the key
// pair and the audit timestamps.
type ProductCategory struct {
	ProductID  int64     `json:"product_id"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (pc ProductCategory) Key() ProductCategoryKey {
	return ProductCategoryKey{ProductID: pc.ProductID, CategoryID: pc.CategoryID}
}

type NewProductCategory = ProductCategoryKey

type UpdateProductCategory struct {
	ProductID  *int64
	CategoryID *int64
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type NewOrder struct {
	UserID int64
	Status string
	Total  decimal.Decimal
}

type UpdateOrder struct {
	Status *string
	Total  *decimal.Decimal
}
