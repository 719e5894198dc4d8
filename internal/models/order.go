package models

import "time"

// ApprovalStatus enumerates review outcomes for an order. An order with no
// review yet carries a NULL status.
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Review filter keywords accepted by the order list endpoint.
const (
	ReviewFilterAll      = "all"
	ReviewFilterPending  = "pending"
	ReviewFilterApproved = "approved"
	ReviewFilterRejected = "rejected"
)

// Order represents a purchase order linking a supplier, item and unit.
type Order struct {
	ID            int64      `db:"id" json:"id"`
	OrderDate     *time.Time `db:"order_date" json:"date"`
	SupplierID    int64      `db:"supplier_id" json:"supplier_id"`
	ItemID        int64      `db:"item_id" json:"item_id"`
	UnitID        int64      `db:"unit_id" json:"unit_id"`
	Quantity      float64    `db:"quantity" json:"quantity"`
	Price         float64    `db:"price" json:"price"`
	Total         float64    `db:"total" json:"total"`
	PaymentCycle  string     `db:"payment_cycle" json:"payment_cycle"`
	PaymentMethod string     `db:"payment_method" json:"payment_method"`
	Client        string     `db:"client" json:"client"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`

	ApprovalStatus  *ApprovalStatus `db:"approval_status" json:"approval_status"`
	ApprovedBy      *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string         `db:"rejection_reason" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Reviewed reports whether the order has left the unset state.
func (o *Order) Reviewed() bool {
	return o.ApprovalStatus != nil
}

// OrderDetail is an order joined with its reference data names.
type OrderDetail struct {
	Order
	SupplierName string `db:"supplier_name" json:"supplier_name"`
	ItemName     string `db:"item_name" json:"item_name"`
	UnitName     string `db:"unit_name" json:"unit_name"`
}

// OrderFilter captures supported filters for listing orders.
type OrderFilter struct {
	Status    string
	Search    string
	Month     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// OrderStats aggregates counts and amounts for the dashboard.
type OrderStats struct {
	TotalOrders    int     `db:"total_orders" json:"total_orders"`
	PendingOrders  int     `db:"pending_orders" json:"pending_orders"`
	ApprovedOrders int     `db:"approved_orders" json:"approved_orders"`
	RejectedOrders int     `db:"rejected_orders" json:"rejected_orders"`
	TotalAmount    float64 `db:"total_amount" json:"total_amount"`
}

// MonthlyTotal is the order volume for a single month.
type MonthlyTotal struct {
	Month      string  `db:"month" json:"month"`
	OrderCount int     `db:"order_count" json:"order_count"`
	Amount     float64 `db:"amount" json:"amount"`
}

// SupplierTotal is the aggregate spend for one supplier.
type SupplierTotal struct {
	SupplierID   int64   `db:"supplier_id" json:"supplier_id"`
	SupplierName string  `db:"supplier_name" json:"supplier_name"`
	OrderCount   int     `db:"order_count" json:"order_count"`
	Amount       float64 `db:"amount" json:"amount"`
}
