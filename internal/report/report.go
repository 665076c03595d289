// Package report выгружает сверку PO в Excel.
package report

import (
	"fmt"
	"io"

	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/xuri/excelize/v2"
)

const (
	SheetLines   = "Остатки"
	SheetHistory = "История"
)

// WriteReconciliation пишет книгу: остатки по строкам плана и история поступлений.
func WriteReconciliation(w io.Writer, rec *reconciliation.Reconciliation, history []reconciliation.ReceiptEvent) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(first, SheetLines); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetHistory); err != nil {
		return err
	}

	title := fmt.Sprintf("PO %s, версия %d", rec.PurchaseOrder.PONumber, rec.PurchaseOrder.VersionNumber)
	status := "в работе"
	if rec.FullyReceived {
		status = "материалы получены полностью"
	}
	if err := f.SetSheetRow(SheetLines, "A1", &[]any{title, status}); err != nil {
		return err
	}

	header := []any{"№", "Код", "Материал", "Тип", "Ед.", "Цвет", "План", "Получено", "Остаток", "Перебор"}
	if err := f.SetSheetRow(SheetLines, "A3", &header); err != nil {
		return err
	}

	row := 4
	put := func(l reconciliation.LineStatus, lineNo any) error {
		over := ""
		if l.OverReceived {
			over = "да"
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(SheetLines, cell, &[]any{
			lineNo, l.MaterialCode, l.MaterialName, l.MaterialType, l.Unit, l.ColorCode,
			l.Planned.InexactFloat64(), l.Received.InexactFloat64(), l.Outstanding.InexactFloat64(), over,
		})
	}
	for _, l := range rec.Lines {
		if err := put(l, l.LineNo); err != nil {
			return err
		}
	}
	for _, l := range rec.Unplanned {
		if err := put(l, "вне плана"); err != nil {
			return err
		}
	}

	hh := []any{"Дата", "Код", "Кол-во", "Получено всего", "План", "Остаток", "PO id", "Склад", "Кто", "Комментарий"}
	if err := f.SetSheetRow(SheetHistory, "A1", &hh); err != nil {
		return err
	}
	for i, ev := range history {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetHistory, cell, &[]any{
			ev.ReceivedAt.Format("2006-01-02 15:04"), ev.MaterialCode,
			ev.Quantity.InexactFloat64(), ev.ReceivedToDate.InexactFloat64(),
			ev.Planned.InexactFloat64(), ev.Outstanding.InexactFloat64(),
			ev.PurchaseOrderID, ev.WarehouseID, ev.ReceivedBy, ev.Note,
		}); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(SheetLines, "B", "C", 24)
	_ = f.SetColWidth(SheetHistory, "A", "A", 18)

	return f.Write(w)
}
