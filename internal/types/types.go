package types

// FileData is a raw tabular file: one header row plus data rows aligned
// to it by position.
type FileData struct {
	Headers []string
	Rows    [][]string
}

// Form is the slice of input rows belonging to one named REDCap form.
type Form struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Choice is one entry of an XLSForm choices sheet.
type Choice struct {
	ListName string
	Name     string
	Label    string
}

// XLSContent is one converted form, ready to be written as a two-sheet
// workbook.
type XLSContent struct {
	Name      string
	Headers   []string
	Questions [][]string
	Choices   []Choice
}

type ConversionResult struct {
	InputFile     string
	OutputFile    string
	Forms         []string
	RowsProcessed int
}
