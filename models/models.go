package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is a two-level hierarchy node. A document with a
// ParentCategory is a sub-category; without one it is top-level.
// ParentCategory is deliberately untyped: legacy rows hold the parent id
// as a plain hex string, newer rows as an ObjectID, and reads must cope
// with both. Populated responses replace it with a ParentInfo.
type Category struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	ParentCategory any                `bson:"parentCategory,omitempty" json:"parentCategory,omitempty"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	SortOrder      int                `bson:"sortOrder" json:"sortOrder"`
	CreatedAt      time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt      time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ParentInfo is the populated shape of Category.ParentCategory.
type ParentInfo struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Images          []string           `bson:"images" json:"images"`
	Price           float64            `bson:"price" json:"price"`
	OriginalPrice   float64            `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	SubCategory     any                `bson:"subCategory" json:"subCategory"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	Stock           int                `bson:"stock" json:"stock"`
	Unit            string             `bson:"unit,omitempty" json:"unit,omitempty"` // kg, piece, bag, etc.
	SortOrder       int                `bson:"sortOrder" json:"sortOrder"`
	WhatsappMessage string             `bson:"whatsappMessage,omitempty" json:"whatsappMessage,omitempty"`
	PhoneNumber     string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Tags            []string           `bson:"tags" json:"tags"`
	CreatedAt       time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SubCategoryInfo is the populated shape of Product.SubCategory.
type SubCategoryInfo struct {
	ID             string `bson:"_id" json:"id"`
	Name           string `bson:"name" json:"name"`
	ParentCategory any    `bson:"parentCategory,omitempty" json:"parentCategory,omitempty"`
}

type OrderItem struct {
	Product  any     `bson:"product" json:"product"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Price    float64 `bson:"price" json:"price"` // unit price at order time
}

type ShippingAddress struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User            any                `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	// ComputedTotal is derived from the items on the way out and is
	// never persisted; TotalAmount stays the client-sent value.
	ComputedTotal   float64            `bson:"-" json:"computedTotal,omitempty"`
	Status          string             `bson:"status" json:"status"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	CreatedAt       time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Role      string             `bson:"role" json:"role"` // "user" or "admin"
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	TotalOrders    int64            `json:"totalOrders"`
	TotalRevenue   float64          `json:"totalRevenue"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
}
