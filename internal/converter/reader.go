package converter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/nconklindev/redform/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV loads a REDCap data dictionary export. A UTF-8 byte order mark
// is tolerated and rows shorter or longer than the header row are kept
// as-is.
func ReadCSV(filename string) (*types.FileData, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	return &types.FileData{
		Headers: records[0],
		Rows:    records[1:],
	}, nil
}
