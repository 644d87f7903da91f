package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Entity kho (map bảng warehouses). Priority thấp hơn được ưu tiên
// khi chọn kho xuất hàng.
type Warehouse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Priority  int       `json:"priority"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateWarehouseRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Priority int    `json:"priority"`
}

func (r CreateWarehouseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Priority, validation.Min(0)),
	)
}

type UpdateWarehouseRequest struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r UpdateWarehouseRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

type ListWarehouseFilter struct {
	Keyword  string
	IsActive *bool
	Page     int
	Limit    int
}
