package model

import "github.com/shopspring/decimal"

// Product is a menu item.  Products are managed outside this service;
// orders only read them to snapshot the current price.
type Product struct {
	ID         uint64          `json:"id"`          // products.id
	CategoryID *uint64         `json:"category_id"` // products.category_id (nullable)
	Name       string          `json:"name"`        // products.name
	Price      decimal.Decimal `json:"price"`       // products.price
	ImageURL   string          `json:"image_url"`   // products.image_url
}

// Category groups products on the menu.
type Category struct {
	ID   uint64 `json:"id"`   // categories.id
	Name string `json:"name"` // categories.name
}
