package models

// MenuItem is a row from menu_items. Prices are kobo (minor units).
type MenuItem struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	Category    string
	Available   bool
}
