package dto

// SupplierRequest is the create/update payload for suppliers.
type SupplierRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Contact *string `json:"contact,omitempty" validate:"omitempty,max=100"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ItemRequest is the create/update payload for items.
type ItemRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// UnitRequest is the create/update payload for units.
type UnitRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// BulkIDRequest selects reference rows for bulk deletion.
type BulkIDRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}
