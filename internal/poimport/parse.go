// Package poimport читает оригинальные PO из Excel и заводит их в базу.
package poimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const DateLayout = "2006-01-02"

// Columns: ожидаемые колонки. product_code необязательна.
var Columns = []string{
	"po_number", "customer_code", "version", "processing_type", "po_date",
	"material_code", "material_name", "material_type", "quantity", "unit",
	"color_code", "notes", "product_code",
}

var required = []string{
	"po_number", "customer_code", "po_date", "material_code", "quantity", "unit",
}

type Line struct {
	Row          int // номер строки в файле, с 1
	MaterialCode string
	MaterialName string
	MaterialType string
	Quantity     decimal.Decimal
	Unit         string
	ColorCode    string
	Notes        string
	ProductCode  string
}

type ImportedPO struct {
	PONumber       string
	CustomerCode   string
	Version        string
	ProcessingType string
	PODate         time.Time
	Lines          []Line
}

// RowError: ошибка в конкретной строке файла.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

var ErrEmpty = errors.New("file contains no purchase order rows")

type row struct {
	PONumber     string `validate:"required,max=64"`
	CustomerCode string `validate:"required,max=64"`
	Version      string `validate:"max=32"`
	MaterialCode string `validate:"required,max=64"`
	MaterialName string `validate:"max=255"`
	Unit         string `validate:"required,oneof=pcs m kg"`
	ColorCode    string `validate:"max=32"`
}

var validate = validator.New()

// Parse читает активный лист: первая строка: заголовок, дальше строка на плановую позицию.
// Строки группируются по po_number в порядке первого появления.
func Parse(r io.Reader) ([]ImportedPO, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmpty
	}

	idx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := idx[c]; !ok {
			return nil, &RowError{Row: 1, Err: fmt.Errorf("missing column %q", c)}
		}
	}

	var (
		out   []ImportedPO
		byNum = map[string]int{}
	)
	for i := 1; i < len(rows); i++ {
		rowNo := i + 1
		cell := func(name string) string {
			j, ok := idx[name]
			if !ok || j >= len(rows[i]) {
				return ""
			}
			return strings.TrimSpace(rows[i][j])
		}

		if strings.Join(rows[i], "") == "" {
			continue
		}

		rw := row{
			PONumber:     cell("po_number"),
			CustomerCode: cell("customer_code"),
			Version:      cell("version"),
			MaterialCode: cell("material_code"),
			MaterialName: cell("material_name"),
			Unit:         strings.ToLower(cell("unit")),
			ColorCode:    cell("color_code"),
		}
		if err := validate.Struct(rw); err != nil {
			return nil, &RowError{Row: rowNo, Err: err}
		}

		qtyStr := strings.ReplaceAll(cell("quantity"), ",", ".")
		qty, err := decimal.NewFromString(qtyStr)
		if err != nil || qty.IsNegative() {
			return nil, &RowError{Row: rowNo, Err: fmt.Errorf("invalid quantity %q", cell("quantity"))}
		}

		date, err := time.Parse(DateLayout, cell("po_date"))
		if err != nil {
			return nil, &RowError{Row: rowNo, Err: fmt.Errorf("invalid po_date %q, want YYYY-MM-DD", cell("po_date"))}
		}

		ln := Line{
			Row:          rowNo,
			MaterialCode: rw.MaterialCode,
			MaterialName: rw.MaterialName,
			MaterialType: cell("material_type"),
			Quantity:     qty,
			Unit:         rw.Unit,
			ColorCode:    rw.ColorCode,
			Notes:        cell("notes"),
			ProductCode:  cell("product_code"),
		}

		k, seen := byNum[rw.PONumber]
		if !seen {
			byNum[rw.PONumber] = len(out)
			out = append(out, ImportedPO{
				PONumber:       rw.PONumber,
				CustomerCode:   rw.CustomerCode,
				Version:        rw.Version,
				ProcessingType: cell("processing_type"),
				PODate:         date,
				Lines:          []Line{ln},
			})
			continue
		}

		po := &out[k]
		if po.CustomerCode != rw.CustomerCode || !po.PODate.Equal(date) {
			return nil, &RowError{Row: rowNo, Err: fmt.Errorf("purchase order %s: customer or date differs from row %d", rw.PONumber, po.Lines[0].Row)}
		}
		po.Lines = append(po.Lines, ln)
	}

	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}
