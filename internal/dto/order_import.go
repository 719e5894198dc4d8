package dto

// OrderImportRowError points at a spreadsheet row that failed validation.
type OrderImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// OrderImportResult reports the outcome of a spreadsheet upload. The import
// is all-or-nothing: Imported is zero whenever RowErrors is non-empty.
type OrderImportResult struct {
	Imported  int                   `json:"imported"`
	RowErrors []OrderImportRowError `json:"row_errors,omitempty"`
}

// BulkOrderRequest selects a set of orders for a bulk operation.
type BulkOrderRequest struct {
	OrderIDs []int64 `json:"order_ids" validate:"required,min=1"`
}

// BulkRejectRequest selects orders for rejection with a mandatory reason.
type BulkRejectRequest struct {
	OrderIDs []int64 `json:"order_ids" validate:"required,min=1"`
	Reason   string  `json:"reason" validate:"required"`
}

// RejectOrderRequest carries the mandatory rejection reason.
type RejectOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}
