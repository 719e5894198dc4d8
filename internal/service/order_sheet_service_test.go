package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/baljuhq/balju-api/internal/models"
)

type namedSupplierRepo struct{ byName map[string]int64 }

func (r *namedSupplierRepo) FindByName(ctx context.Context, name string) (*models.Supplier, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Supplier{ID: id, Name: name}, nil
}

func (r *namedSupplierRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	supplier.ID = int64(len(r.byName) + 1)
	r.byName[supplier.Name] = supplier.ID
	return nil
}

type namedItemRepo struct{ byName map[string]int64 }

func (r *namedItemRepo) FindByName(ctx context.Context, name string) (*models.Item, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Item{ID: id, Name: name}, nil
}

func (r *namedItemRepo) Create(ctx context.Context, item *models.Item) error {
	item.ID = int64(len(r.byName) + 1)
	r.byName[item.Name] = item.ID
	return nil
}

type namedUnitRepo struct{ byName map[string]int64 }

func (r *namedUnitRepo) FindByName(ctx context.Context, name string) (*models.Unit, error) {
	id, ok := r.byName[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Unit{ID: id, Name: name}, nil
}

func (r *namedUnitRepo) Create(ctx context.Context, unit *models.Unit) error {
	unit.ID = int64(len(r.byName) + 1)
	r.byName[unit.Name] = unit.ID
	return nil
}

type sheetServiceFixture struct {
	service   *OrderSheetService
	suppliers *namedSupplierRepo
	items     *namedItemRepo
	units     *namedUnitRepo
}

func newTestSheetService(orders *memOrderRepo) *OrderSheetService {
	return newSheetFixture(orders).service
}

func newSheetFixture(orders *memOrderRepo) *sheetServiceFixture {
	suppliers := &namedSupplierRepo{byName: map[string]int64{"신선농장": 1}}
	items := &namedItemRepo{byName: map[string]int64{"양파": 1}}
	units := &namedUnitRepo{byName: map[string]int64{"kg": 1}}
	return &sheetServiceFixture{
		service: NewOrderSheetService(
			orders, suppliers, items, units,
			&memAudit{}, &memCache{},
			OrderSheetConfig{MaxRows: 100}, nil,
		),
		suppliers: suppliers,
		items:     items,
		units:     units,
	}
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"발주일(*)", "구입처(*)", "품목(*)", "단가(*)", "단위", "수량", "총액", "결제주기", "대금지급방법", "구입연락처", "비고"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestOrderSheetImportValidRows(t *testing.T) {
	orders := newMemOrderRepo()
	svc := newTestSheetService(orders)

	reader := buildWorkbook(t, [][]interface{}{
		{"2024-03-01", "신선농장", "양파", "1500", "kg", "2", "", "monthly", "card", "010-1111-2222", "note"},
		{"2024.3.2", "신선농장", "양파", "2000", "kg", "3", "", "", "", "", ""},
	})

	result, err := svc.Import(context.Background(), reader, Actor{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.RowErrors)
	assert.Len(t, orders.orders, 2)

	for _, o := range orders.orders {
		assert.Equal(t, o.Price*o.Quantity, o.Total)
		assert.Nil(t, o.ApprovalStatus)
	}
}

func TestOrderSheetImportAllOrNothing(t *testing.T) {
	orders := newMemOrderRepo()
	fixture := newSheetFixture(orders)

	reader := buildWorkbook(t, [][]interface{}{
		{"2024-03-01", "신선농장", "양파", "1500", "kg", "2", "", "", "", "", ""},
		{"2024-03-02", "새로운업체", "", "1500", "kg", "2", "", "", "", "", ""},
		{"not-a-date", "신선농장", "양파", "1500", "kg", "0", "", "", "", "", ""},
	})

	result, err := fixture.service.Import(context.Background(), reader, Actor{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Len(t, result.RowErrors, 3)
	assert.Equal(t, 3, result.RowErrors[0].Row)
	assert.Empty(t, orders.orders)
	assert.NotContains(t, fixture.suppliers.byName, "새로운업체")
}

func TestOrderSheetImportCreatesMissingReferences(t *testing.T) {
	orders := newMemOrderRepo()
	fixture := newSheetFixture(orders)

	reader := buildWorkbook(t, [][]interface{}{
		{"2024-03-01", "바다수산", "고등어", "4000", "box", "3", "", "", "", "", ""},
	})

	result, err := fixture.service.Import(context.Background(), reader, Actor{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Contains(t, fixture.suppliers.byName, "바다수산")
	assert.Contains(t, fixture.items.byName, "고등어")
	assert.Contains(t, fixture.units.byName, "box")

	require.Len(t, orders.orders, 1)
	for _, o := range orders.orders {
		assert.Equal(t, fixture.suppliers.byName["바다수산"], o.SupplierID)
		assert.Equal(t, 12000.0, o.Total)
	}
}

func TestOrderSheetImportMissingColumn(t *testing.T) {
	orders := newMemOrderRepo()
	svc := newTestSheetService(orders)

	f := excelize.NewFile()
	defer f.Close()
	header := []interface{}{"발주일", "구입처"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	row := []interface{}{"2024-03-01", "신선농장"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), bytes.NewReader(buf.Bytes()), Actor{})
	require.Error(t, err)
}

func TestOrderSheetImportRejectsGarbage(t *testing.T) {
	orders := newMemOrderRepo()
	svc := newTestSheetService(orders)

	_, err := svc.Import(context.Background(), bytes.NewReader([]byte("not a workbook")), Actor{})
	require.Error(t, err)
}

func TestOrderSheetTemplateContainsHeaders(t *testing.T) {
	svc := newTestSheetService(newMemOrderRepo())

	file, err := svc.Template()
	require.NoError(t, err)
	assert.Equal(t, "order_template.xlsx", file.Filename)

	f, err := excelize.OpenReader(bytes.NewReader(file.Payload))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, orderSheetHeaders, rows[0])
}

func TestOrderSheetExportFormats(t *testing.T) {
	orders := newMemOrderRepo()
	orders.seed(nil, nil)
	svc := newTestSheetService(orders)

	for format, contentType := range map[string]string{
		ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		ExportFormatCSV:  "text/csv; charset=utf-8",
		ExportFormatPDF:  "application/pdf",
	} {
		file, err := svc.Export(context.Background(), models.OrderFilter{}, format)
		require.NoError(t, err, format)
		assert.Equal(t, contentType, file.ContentType)
		assert.NotEmpty(t, file.Payload)
	}

	_, err := svc.Export(context.Background(), models.OrderFilter{}, "docx")
	require.Error(t, err)
}
