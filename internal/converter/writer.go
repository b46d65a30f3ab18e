package converter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/redform/internal/types"
)

const (
	surveySheet  = "survey"
	choicesSheet = "choices"
)

var choicesHeaders = []string{"list name", "name", "label"}

// WriteOutput serializes converted forms to disk. ModeSingle writes the
// first content as one workbook; ModeZip bundles one workbook per form
// into a zip archive. Everything is assembled in memory and written via
// a temp file, so a failed run leaves no half-written output behind.
func WriteOutput(filename string, mode Mode, contents []*types.XLSContent) error {
	if len(contents) == 0 {
		return fmt.Errorf("nothing to write")
	}

	if mode == ModeSingle {
		buf, err := buildWorkbook(contents[0])
		if err != nil {
			return err
		}
		return writeAtomic(filename, buf.Bytes())
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for _, content := range contents {
		buf, err := buildWorkbook(content)
		if err != nil {
			return err
		}
		member, err := zw.Create(content.Name + ".xlsx")
		if err != nil {
			return err
		}
		if _, err := member.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return writeAtomic(filename, archive.Bytes())
}

// buildWorkbook renders one form as a two-sheet workbook: the survey
// sheet with its header row and question rows, and the choices sheet.
func buildWorkbook(content *types.XLSContent) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), surveySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(choicesSheet); err != nil {
		return nil, err
	}

	if err := writeRow(f, surveySheet, 0, content.Headers); err != nil {
		return nil, err
	}
	for i, question := range content.Questions {
		if err := writeRow(f, surveySheet, i+1, question); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, choicesSheet, 0, choicesHeaders); err != nil {
		return nil, err
	}
	for i, choice := range content.Choices {
		row := []string{choice.ListName, choice.Name, choice.Label}
		if err := writeRow(f, choicesSheet, i+1, row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func writeAtomic(filename string, data []byte) error {
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
