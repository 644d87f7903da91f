package model

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSKUAlreadyExists = errors.New("sku already exists")
	ErrInvalidPrice     = errors.New("price must be a non-negative number")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

func IsDuplicateSKUError(err error) bool {
	return errors.Is(err, ErrSKUAlreadyExists)
}
