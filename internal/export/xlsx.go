package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/hiresignal/scout-cli/internal/model"
)

// scoreCol is the index of the score column, written as a numeric cell
// so the workbook sorts on it natively.
const scoreCol = 7

// WriteXLSX writes leads as an XLSX workbook with a single Leads sheet.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}

	for i := range leads {
		l := &leads[i]
		row := sheet.AddRow()
		for j, cell := range leadRow(l) {
			c := row.AddCell()
			if j == scoreCol {
				c.SetFloatWithFormat(l.Score, "0.00")
				continue
			}
			c.Value = cell
		}
	}

	return eris.Wrap(file.Write(w), "export: write xlsx")
}
