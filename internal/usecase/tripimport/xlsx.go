package tripimport

import (
	"io"

	"github.com/route-impact/internal/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX читает первый лист книги и применяет ту же эвристику, что и для CSV
func ParseXLSX(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.ErrInputParse.Wrap(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInputParse.Wrapf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.ErrInputParse.Wrap(err)
	}
	return ParseRecords(rows), nil
}
