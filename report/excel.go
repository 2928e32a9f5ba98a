// Package report builds the production report workbook supervisors export
// from the dashboard.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pofcore/progress"
	"pofcore/store"
)

type Generator struct {
	db       *store.DB
	progress *progress.Manager
}

func NewGenerator(db *store.DB, prog *progress.Manager) *Generator {
	return &Generator{db: db, progress: prog}
}

// ProductionReport renders one row per order with routing progress and the
// derived execution state of each step, and returns the xlsx bytes.
func (g *Generator) ProductionReport(filter store.OrderFilter) ([]byte, error) {
	orders, err := g.db.ListOrders(filter)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Production"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	headers := []string{
		"Order #", "Customer", "Item", "Qty", "Priority", "Due Date",
		"Released", "Steps", "Completed", "Current Step", "State",
	}
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	lastCol := cellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for rowIdx, order := range orders {
		rowNum := rowIdx + 2
		prog, err := g.progress.ProgressOf(order.ID)
		if err != nil {
			return nil, fmt.Errorf("progress for order %d: %w", order.ID, err)
		}

		state := "PENDING"
		switch {
		case prog.Complete:
			state = "COMPLETED"
		case prog.Current != nil:
			state = "IN PROGRESS"
		case prog.Completed > 0:
			state = "BETWEEN STEPS"
		}

		f.SetCellValue(sheet, cellName(1, rowNum), order.OrderNumber)
		f.SetCellValue(sheet, cellName(2, rowNum), order.CustomerName)
		f.SetCellValue(sheet, cellName(3, rowNum), order.ItemName)
		f.SetCellValue(sheet, cellName(4, rowNum), order.Quantity)
		f.SetCellValue(sheet, cellName(5, rowNum), order.Priority)
		f.SetCellValue(sheet, cellName(6, rowNum), order.DueDate.Format("2006-01-02"))
		f.SetCellValue(sheet, cellName(7, rowNum), order.Released)
		f.SetCellValue(sheet, cellName(8, rowNum), prog.Total)
		f.SetCellValue(sheet, cellName(9, rowNum), prog.Completed)
		f.SetCellValue(sheet, cellName(10, rowNum), prog.CurrentSeq)
		f.SetCellValue(sheet, cellName(11, rowNum), state)
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(sheet, "A", "C", 18)
	f.SetColWidth(sheet, "D", "K", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
