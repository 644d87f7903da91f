package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Price, validation.By(validatePrice)),
	)
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

func (r UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Category, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

func validatePrice(value interface{}) error {
	price, ok := value.(decimal.Decimal)
	if !ok {
		return ErrInvalidPrice
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// ListProductsRequest - filter list, default page=1 limit=20
type ListProductsRequest struct {
	Search   string
	Category string
	Active   *bool
	Page     int
	Limit    int
}
