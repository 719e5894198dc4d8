package dto

// OrderRequest is the create/update payload for purchase orders. The stored
// total is always recomputed from price and quantity on the server.
type OrderRequest struct {
	Date          string   `json:"date" validate:"required,datetime=2006-01-02"`
	SupplierID    int64    `json:"supplier_id" validate:"required,gt=0"`
	ItemID        int64    `json:"item_id" validate:"required,gt=0"`
	UnitID        int64    `json:"unit_id" validate:"required,gt=0"`
	Quantity      float64  `json:"quantity" validate:"required,gt=0"`
	Price         float64  `json:"price" validate:"gte=0"`
	PaymentCycle  string   `json:"payment_cycle" validate:"omitempty,max=50"`
	PaymentMethod string   `json:"payment_method" validate:"omitempty,max=50"`
	Client        string   `json:"client" validate:"omitempty,max=200"`
	Notes         *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
