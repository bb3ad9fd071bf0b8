package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/hiresignal/scout-cli/internal/model"
)

// WriteCSV writes leads as CSV with a header row.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i := range leads {
		if err := cw.Write(leadRow(&leads[i])); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", i)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}
