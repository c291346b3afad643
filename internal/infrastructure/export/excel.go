// Package export renders inventory snapshots as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stockbook/internal/domain/catalogs/material"
	"stockbook/internal/domain/ledger"
)

const (
	sheetMaterials = "Materials"
	sheetStockLog  = "Stock Log"
)

// Workbook builds an Excel workbook from a materials snapshot and the
// full ledger.
type Workbook struct {
	Materials    []material.Material
	Transactions []ledger.StockTransaction
}

// WriteTo renders the workbook to w.
func (wb Workbook) WriteTo(w io.Writer) (int64, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, sheetMaterials); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetStockLog); err != nil {
		return 0, fmt.Errorf("add sheet: %w", err)
	}

	if err := wb.writeMaterials(f); err != nil {
		return 0, err
	}
	if err := wb.writeStockLog(f); err != nil {
		return 0, err
	}

	return f.WriteTo(w)
}

func (wb Workbook) writeMaterials(f *excelize.File) error {
	header := []interface{}{
		"id", "name", "category", "unit",
		"quantity", "min_stock", "cost_per_unit", "supplier", "low_stock",
	}
	if err := f.SetSheetRow(sheetMaterials, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, m := range wb.Materials {
		supplier := ""
		if m.Supplier != nil {
			supplier = *m.Supplier
		}
		row := []interface{}{
			m.ID.String(),
			m.Name,
			m.Category,
			m.Unit,
			m.Quantity.String(),
			m.MinStock.String(),
			m.CostPerUnit.String(),
			supplier,
			m.IsLowStock(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetMaterials, cell, &row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

func (wb Workbook) writeStockLog(f *excelize.File) error {
	header := []interface{}{
		"id", "date", "type", "material", "quantity",
		"worker", "sofa_model", "sofa_details", "note",
	}
	if err := f.SetSheetRow(sheetStockLog, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range wb.Transactions {
		workerName := ""
		if t.WorkerName != nil {
			workerName = *t.WorkerName
		}
		modelName := ""
		if t.SofaModelName != nil {
			modelName = *t.SofaModelName
		}
		details := ""
		if t.SofaDetails != nil {
			details = *t.SofaDetails
		}
		note := ""
		if t.Note != nil {
			note = t.Note.String()
		}
		row := []interface{}{
			t.ID.String(),
			t.Date.Format("2006-01-02 15:04"),
			string(t.Type),
			t.MaterialName,
			t.Quantity.String(),
			workerName,
			modelName,
			details,
			note,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetStockLog, cell, &row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}
