package model

import "errors"

var (
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrCodeAlreadyExists = errors.New("warehouse code already exists")
	ErrWarehouseHasStock = errors.New("warehouse has stock and cannot be deleted")
	ErrWarehouseInactive = errors.New("warehouse is inactive")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWarehouseNotFound)
}
