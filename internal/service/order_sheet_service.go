package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/dto"
	"github.com/baljuhq/balju-api/internal/models"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
	"github.com/baljuhq/balju-api/pkg/export"
)

// Spreadsheet column headers, matching the distributed order template.
var orderSheetHeaders = []string{
	"발주일", "구입처", "품목", "단가", "단위", "수량", "총액",
	"결제주기", "대금지급방법", "구입연락처", "비고",
}

// Export formats supported for the order list.
const (
	ExportFormatXLSX = "xlsx"
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
)

type supplierNameLookup interface {
	FindByName(ctx context.Context, name string) (*models.Supplier, error)
	Create(ctx context.Context, supplier *models.Supplier) error
}

type itemNameLookup interface {
	FindByName(ctx context.Context, name string) (*models.Item, error)
	Create(ctx context.Context, item *models.Item) error
}

type unitNameLookup interface {
	FindByName(ctx context.Context, name string) (*models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) error
}

type orderBatchWriter interface {
	CreateBatch(ctx context.Context, orders []models.Order) error
	List(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, int, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfDatasetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// OrderSheetConfig limits spreadsheet imports.
type OrderSheetConfig struct {
	MaxRows int
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// OrderSheetService implements spreadsheet import and export for orders.
type OrderSheetService struct {
	orders    orderBatchWriter
	suppliers supplierNameLookup
	items     itemNameLookup
	units     unitNameLookup
	audit     auditRecorder
	cache     cacheInvalidator
	excel     *export.ExcelExporter
	csv       datasetRenderer
	pdf       pdfDatasetRenderer
	logger    *zap.Logger
	cfg       OrderSheetConfig
}

// NewOrderSheetService constructs an OrderSheetService.
func NewOrderSheetService(
	orders orderBatchWriter,
	suppliers supplierNameLookup,
	items itemNameLookup,
	units unitNameLookup,
	audit auditRecorder,
	cache cacheInvalidator,
	cfg OrderSheetConfig,
	logger *zap.Logger,
) *OrderSheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &OrderSheetService{
		orders:    orders,
		suppliers: suppliers,
		items:     items,
		units:     units,
		audit:     audit,
		cache:     cache,
		excel:     export.NewExcelExporter(),
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		cfg:       cfg,
	}
}

// Import parses an uploaded xlsx workbook and inserts all rows in one
// transaction. Any invalid row refuses the whole file and the result lists
// every offending row. Supplier, item and unit names that do not exist yet
// are created; reference rows are only touched once the file is clean.
func (s *OrderSheetService) Import(ctx context.Context, r io.Reader, actor Actor) (*dto.OrderImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not a valid xlsx workbook")
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook contains no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read sheet rows")
	}
	if len(rows) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no data rows")
	}
	if len(rows)-1 > s.cfg.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("too many rows: limit is %d", s.cfg.MaxRows))
	}

	columns, err := mapSheetColumns(rows[0])
	if err != nil {
		return nil, err
	}

	result := &dto.OrderImportResult{}
	parsed := make([]sheetRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		sr, rowErrs := parseSheetRow(row, columns, rowNum)
		if len(rowErrs) > 0 {
			result.RowErrors = append(result.RowErrors, rowErrs...)
			continue
		}
		parsed = append(parsed, *sr)
	}

	if len(result.RowErrors) > 0 {
		return result, nil
	}
	if len(parsed) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workbook has no data rows")
	}

	orders, err := s.resolveRows(ctx, parsed)
	if err != nil {
		return nil, err
	}

	if err := s.orders.CreateBatch(ctx, orders); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import orders")
	}

	if s.audit != nil {
		details := fmt.Sprintf(`{"imported":%d}`, len(orders))
		entry := &models.AuditLog{
			Action:    models.AuditActionOrderImport,
			Resource:  "orders",
			NewValues: []byte(details),
			IPAddress: actor.IP,
			UserAgent: actor.UserAgent,
		}
		if actor.UserID != "" {
			userID := actor.UserID
			entry.UserID = &userID
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("failed to record import audit log", zap.Error(err))
		}
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		}
	}

	result.Imported = len(orders)
	return result, nil
}

// Template renders an empty order workbook with the expected header row and
// one sample row.
func (s *OrderSheetService) Template() (*ExportFile, error) {
	sample := map[string]string{
		"발주일":    "2024-01-01",
		"구입처":    "",
		"품목":     "",
		"단가":     "0",
		"단위":     "",
		"수량":     "1",
		"총액":     "",
		"결제주기":   "monthly",
		"대금지급방법": "",
		"구입연락처":  "010-0000-0000",
		"비고":     "",
	}
	payload, err := s.excel.Render(export.Dataset{Headers: orderSheetHeaders, Rows: []map[string]string{sample}})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render template")
	}
	return &ExportFile{
		Filename:    "order_template.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Payload:     payload,
	}, nil
}

// Export renders the filtered order list in the requested format.
func (s *OrderSheetService) Export(ctx context.Context, filter models.OrderFilter, format string) (*ExportFile, error) {
	orders, err := s.collectAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	dataset := buildOrderDataset(orders)
	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case "", ExportFormatXLSX:
		payload, err := s.excel.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("orders_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Payload:     payload,
		}, nil
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("orders_%s.csv", stamp),
			ContentType: "text/csv; charset=utf-8",
			Payload:     payload,
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Orders %s", stamp))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("orders_%s.pdf", stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *OrderSheetService) collectAll(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, error) {
	var all []models.OrderDetail
	filter.Page = 1
	filter.PageSize = 200
	for {
		page, total, err := s.orders.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders for export")
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			return all, nil
		}
		filter.Page++
	}
}

// sheetRow is a structurally valid data row whose reference names are not
// resolved to ids yet.
type sheetRow struct {
	date          time.Time
	supplierName  string
	itemName      string
	unitName      string
	quantity      float64
	price         float64
	paymentCycle  string
	paymentMethod string
	client        string
	notes         string
}

func parseSheetRow(row []string, columns map[string]int, rowNum int) (*sheetRow, []dto.OrderImportRowError) {
	var errs []dto.OrderImportRowError
	fail := func(format string, args ...interface{}) {
		errs = append(errs, dto.OrderImportRowError{Row: rowNum, Message: fmt.Sprintf(format, args...)})
	}
	cell := func(header string) string {
		idx, ok := columns[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	sr := &sheetRow{}

	rawDate := cell("발주일")
	if rawDate == "" {
		fail("발주일 is required")
	} else if parsed, err := parseSheetDate(rawDate); err != nil {
		fail("invalid 발주일 %q", rawDate)
	} else {
		sr.date = parsed
	}

	if sr.supplierName = cell("구입처"); sr.supplierName == "" {
		fail("구입처 is required")
	}
	if sr.itemName = cell("품목"); sr.itemName == "" {
		fail("품목 is required")
	}
	if sr.unitName = cell("단위"); sr.unitName == "" {
		fail("단위 is required")
	}

	rawQty := cell("수량")
	if rawQty == "" {
		fail("수량 is required")
	} else if qty, err := strconv.ParseFloat(rawQty, 64); err != nil || qty <= 0 {
		fail("invalid 수량 %q", rawQty)
	} else {
		sr.quantity = qty
	}

	rawPrice := cell("단가")
	if rawPrice != "" {
		price, err := strconv.ParseFloat(strings.ReplaceAll(rawPrice, ",", ""), 64)
		if err != nil || price < 0 {
			fail("invalid 단가 %q", rawPrice)
		} else {
			sr.price = price
		}
	}

	sr.paymentCycle = cell("결제주기")
	sr.paymentMethod = cell("대금지급방법")
	sr.client = cell("구입연락처")
	sr.notes = cell("비고")

	if len(errs) > 0 {
		return nil, errs
	}
	return sr, nil
}

// resolveRows maps reference names to ids, creating suppliers, items and
// units that do not exist yet. The stored total always comes from price and
// quantity; any 총액 cell in the sheet is ignored.
func (s *OrderSheetService) resolveRows(ctx context.Context, parsed []sheetRow) ([]models.Order, error) {
	supplierIDs := make(map[string]int64)
	itemIDs := make(map[string]int64)
	unitIDs := make(map[string]int64)

	orders := make([]models.Order, 0, len(parsed))
	for _, sr := range parsed {
		supplierID, ok := supplierIDs[sr.supplierName]
		if !ok {
			supplier, err := s.suppliers.FindByName(ctx, sr.supplierName)
			if errors.Is(err, sql.ErrNoRows) {
				supplier = &models.Supplier{Name: sr.supplierName}
				err = s.suppliers.Create(ctx, supplier)
			}
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to resolve 구입처 %q", sr.supplierName))
			}
			supplierID = supplier.ID
			supplierIDs[sr.supplierName] = supplierID
		}

		itemID, ok := itemIDs[sr.itemName]
		if !ok {
			item, err := s.items.FindByName(ctx, sr.itemName)
			if errors.Is(err, sql.ErrNoRows) {
				item = &models.Item{Name: sr.itemName}
				err = s.items.Create(ctx, item)
			}
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to resolve 품목 %q", sr.itemName))
			}
			itemID = item.ID
			itemIDs[sr.itemName] = itemID
		}

		unitID, ok := unitIDs[sr.unitName]
		if !ok {
			unit, err := s.units.FindByName(ctx, sr.unitName)
			if errors.Is(err, sql.ErrNoRows) {
				unit = &models.Unit{Name: sr.unitName}
				err = s.units.Create(ctx, unit)
			}
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to resolve 단위 %q", sr.unitName))
			}
			unitID = unit.ID
			unitIDs[sr.unitName] = unitID
		}

		date := sr.date
		order := models.Order{
			OrderDate:     &date,
			SupplierID:    supplierID,
			ItemID:        itemID,
			UnitID:        unitID,
			Quantity:      sr.quantity,
			Price:         sr.price,
			Total:         sr.price * sr.quantity,
			PaymentCycle:  sr.paymentCycle,
			PaymentMethod: sr.paymentMethod,
			Client:        sr.client,
		}
		if sr.notes != "" {
			notes := sr.notes
			order.Notes = &notes
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func mapSheetColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for idx, raw := range header {
		name := strings.TrimSpace(raw)
		name = strings.TrimSuffix(name, "(*)")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		columns[name] = idx
	}
	for _, required := range []string{"발주일", "구입처", "품목", "단위", "수량"} {
		if _, ok := columns[required]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("missing column %q", required))
		}
	}
	return columns, nil
}

func parseSheetDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006.1.2", "2006.01.02", "2006/01/02", "01-02-06"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func buildOrderDataset(orders []models.OrderDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(orders))
	for _, order := range orders {
		date := ""
		if order.OrderDate != nil {
			date = order.OrderDate.Format("2006-01-02")
		}
		notes := ""
		if order.Notes != nil {
			notes = *order.Notes
		}
		rows = append(rows, map[string]string{
			"발주일":    date,
			"구입처":    order.SupplierName,
			"품목":     order.ItemName,
			"단가":     strconv.FormatFloat(order.Price, 'f', -1, 64),
			"단위":     order.UnitName,
			"수량":     strconv.FormatFloat(order.Quantity, 'f', -1, 64),
			"총액":     strconv.FormatFloat(order.Total, 'f', -1, 64),
			"결제주기":   order.PaymentCycle,
			"대금지급방법": order.PaymentMethod,
			"구입연락처":  order.Client,
			"비고":     notes,
		})
	}
	return export.Dataset{Headers: orderSheetHeaders, Rows: rows}
}
