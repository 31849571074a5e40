package services

import "errors"

var (
	// ErrItemNotFound: the menu item does not exist or is unavailable.
	ErrItemNotFound = errors.New("menu item not found")
	// ErrOrderNotFound: no placed order with that id.
	ErrOrderNotFound = errors.New("order not found")
)
