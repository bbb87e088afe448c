package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/bmedia/gearsync/pkg/errors"
)

const (
	changesSheet = "Changes"
	imagesSheet  = "Images"
)

// WriteXLSX writes the report as a workbook with a Changes sheet and, when
// downloads failed, an Images sheet.
func WriteXLSX(path string, d Data) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), changesSheet); err != nil {
		return errors.WrapResource("create", "sheet", changesSheet, err)
	}

	setRow(f, changesSheet, 1, columns)
	for i, e := range reportable(d.Log) {
		setRow(f, changesSheet, i+2, entryRow(e))
	}
	_ = f.SetPanes(changesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if len(d.FailedImages) > 0 {
		if _, err := f.NewSheet(imagesSheet); err != nil {
			return errors.WrapResource("create", "sheet", imagesSheet, err)
		}
		setRow(f, imagesSheet, 1, []string{"Category", "Product", "Source URL", "Destination"})
		for i, j := range d.FailedImages {
			setRow(f, imagesSheet, i+2, []string{j.Category, j.Product, j.SourceURL, j.DestPath})
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
