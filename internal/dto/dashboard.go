package dto

import (
	"time"

	"github.com/baljuhq/balju-api/internal/models"
)

// DashboardSummary aggregates order activity for the dashboard charts.
type DashboardSummary struct {
	Stats        models.OrderStats      `json:"stats"`
	Monthly      []models.MonthlyTotal  `json:"monthly"`
	TopSuppliers []models.SupplierTotal `json:"top_suppliers"`
	GeneratedAt  time.Time              `json:"generated_at"`
}
