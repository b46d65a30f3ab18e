// Package converter translates REDCap data dictionary exports into
// XLSForm workbooks usable in KoboToolbox.
package converter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nconklindev/redform/internal/types"
)

// Mode selects how converted forms are packaged.
type Mode string

const (
	// ModeZip writes one workbook per detected form, bundled into a zip
	// archive.
	ModeZip Mode = "zip_xls"
	// ModeSingle writes every form into one workbook.
	ModeSingle Mode = "single_xls"
)

// defaultChoices lead every choices sheet; the built-in yes_no list backs
// REDCap's yesno field type.
func defaultChoices() []types.Choice {
	return []types.Choice{
		{ListName: "yes_no", Name: "yes", Label: "Yes"},
		{ListName: "yes_no", Name: "no", Label: "No"},
	}
}

// Converter drives the conversion of one REDCap export.
type Converter struct {
	mode        Mode
	copyColumns []string
}

func New(mode Mode, copyColumns []string) *Converter {
	return &Converter{mode: mode, copyColumns: copyColumns}
}

// Convert turns the input table into one XLSContent per form. Progress
// fractions are pushed to the optional channel with non-blocking sends.
func (c *Converter) Convert(data *types.FileData, progress chan<- float64) ([]*types.XLSContent, error) {
	if err := c.checkCopyColumns(data.Headers); err != nil {
		return nil, err
	}

	forms, err := c.resolveForms(data)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, form := range forms {
		total += len(form.Rows)
	}
	done := 0
	report := func() {
		done++
		if progress != nil && total > 0 {
			select {
			case progress <- float64(done) / float64(total):
			default:
			}
		}
	}

	var converted []*types.XLSContent
	for _, form := range forms {
		content, err := c.convertForm(form, report)
		if err != nil {
			return nil, err
		}
		converted = append(converted, content)
	}
	return converted, nil
}

func (c *Converter) checkCopyColumns(headers []string) error {
	index := newHeaderIndex(headers)
	for _, column := range c.copyColumns {
		if _, ok := index[column]; !ok {
			return &ColumnError{Column: column}
		}
	}
	return nil
}

func (c *Converter) resolveForms(data *types.FileData) ([]*types.Form, error) {
	if c.mode == ModeSingle {
		return []*types.Form{{Headers: data.Headers, Rows: data.Rows}}, nil
	}
	return splitForms(data)
}

// splitForms walks the input in order, starting a new form whenever the
// Form Name cell changes to a new non-empty value. Each row's branching
// logic (and, for calc fields, its calculation) may only reference fields
// already seen within the current form; anything else is a fatal
// cross-form reference.
func splitForms(data *types.FileData) ([]*types.Form, error) {
	index := newHeaderIndex(data.Headers)
	for _, h := range []string{hdrFieldName, hdrFieldType, hdrBranching, hdrChoices, hdrFormName} {
		if _, ok := index[h]; !ok {
			return nil, fmt.Errorf("missing required column %q", h)
		}
	}

	var forms []*types.Form
	current := &types.Form{Headers: data.Headers}
	seen := make(map[string]bool)

	for i, raw := range data.Rows {
		row := rowInput{index: index, row: raw}
		name := row.get(hdrFieldName)
		if name == "" {
			continue
		}

		formName := row.get(hdrFormName)
		if current.Name == "" && len(current.Rows) == 0 {
			current.Name = formName
		}
		if formName != "" && formName != current.Name {
			forms = append(forms, current)
			current = &types.Form{Name: formName, Headers: data.Headers}
			seen = make(map[string]bool)
		}

		refs := ExtractReferences(row.get(hdrBranching))
		if row.get(hdrFieldType) == fieldTypeCalc {
			refs = append(refs, ExtractReferences(row.get(hdrChoices))...)
		}
		for _, ref := range refs {
			if !seen[ref] {
				return nil, &CrossFormError{Line: i, Row: strings.Join(raw, ", ")}
			}
		}

		seen[name] = true
		current.Rows = append(current.Rows, raw)
	}

	forms = append(forms, current)
	return forms, nil
}

// listRegistry assigns list_<N> indices to choice sets within one form.
// Two fields offering the same option names, regardless of order, share
// one generated list.
type listRegistry struct {
	indexBySet map[string]int
	next       int
}

func newListRegistry() *listRegistry {
	return &listRegistry{indexBySet: make(map[string]int)}
}

// resolve returns the list index for a set of option names, assigning
// the next free index on first sight.
func (r *listRegistry) resolve(names []string) (index int, isNew bool) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	key := strings.Join(sorted, "|")
	if index, ok := r.indexBySet[key]; ok {
		return index, false
	}
	index = r.next
	r.indexBySet[key] = index
	r.next++
	return index, true
}

func (c *Converter) convertForm(form *types.Form, report func()) (*types.XLSContent, error) {
	layout := buildLayout(form.Headers, c.copyColumns)
	index := newHeaderIndex(form.Headers)
	lists := newListRegistry()
	choices := defaultChoices()

	var questions [][]string
	groups := 0

	for _, raw := range form.Rows {
		report()
		row := rowInput{index: index, row: raw}
		if row.get(hdrFieldName) == "" {
			continue
		}

		if section := row.get(hdrSection); section != "" {
			if groups > 0 {
				questions = append(questions, endGroup(layout))
			}
			groups++
			questions = append(questions, beginGroup(layout, groups, section))
		}

		xlsType, wantsList := FieldType(row.get(hdrFieldType), row.get(hdrValidation))

		// Parse the choices cell even for fields that get no generated
		// list so malformed definitions fail the run either way.
		var rowChoices []types.Choice
		if xlsType != typeCalculate {
			parsed, err := ParseChoices(row.get(hdrChoices), "")
			if err != nil {
				return nil, err
			}
			rowChoices = parsed
		}

		if wantsList {
			names := make([]string, len(rowChoices))
			for i, choice := range rowChoices {
				names[i] = choice.Name
			}
			idx, isNew := lists.resolve(names)
			list := listName(idx)
			xlsType += " " + list
			if isNew {
				for i := range rowChoices {
					rowChoices[i].ListName = list
				}
				choices = append(choices, rowChoices...)
			}
		}

		questions = append(questions, convertRow(row, layout, xlsType))
	}

	if groups > 0 {
		questions = append(questions, endGroup(layout))
	}

	return &types.XLSContent{
		Name:      form.Name,
		Headers:   layout.headers,
		Questions: questions,
		Choices:   choices,
	}, nil
}

func beginGroup(l outputLayout, ordinal int, label string) []string {
	row := make([]string, len(l.headers))
	l.set(row, ColName, "group_"+strconv.Itoa(ordinal))
	l.set(row, ColType, "begin group")
	l.set(row, ColLabel, label)
	return row
}

func endGroup(l outputLayout) []string {
	row := make([]string, len(l.headers))
	l.set(row, ColType, "end group")
	return row
}

// Run executes a whole conversion: read the REDCap CSV, convert it, and
// write the packaged output.
func Run(inputFile, outputFile string, mode Mode, copyColumns []string, progress chan<- float64) (*types.ConversionResult, error) {
	data, err := ReadCSV(inputFile)
	if err != nil {
		return nil, err
	}

	contents, err := New(mode, copyColumns).Convert(data, progress)
	if err != nil {
		return nil, err
	}

	if err := WriteOutput(outputFile, mode, contents); err != nil {
		return nil, err
	}

	result := &types.ConversionResult{InputFile: inputFile, OutputFile: outputFile}
	for _, content := range contents {
		result.Forms = append(result.Forms, content.Name)
		result.RowsProcessed += len(content.Questions)
	}
	return result, nil
}

// DefaultOutputPath derives the output filename from the input when the
// user does not name one: the extension becomes .zip or .xlsx by mode.
func DefaultOutputPath(inputFile string, mode Mode) string {
	base := strings.TrimSuffix(inputFile, filepath.Ext(inputFile))
	if mode == ModeSingle {
		return base + ".xlsx"
	}
	return base + ".zip"
}
