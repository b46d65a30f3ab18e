package converter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/nconklindev/redform/internal/types"
)

// Recognized headers of a REDCap data dictionary export.
const (
	hdrFieldName  = "Variable / Field Name"
	hdrFormName   = "Form Name"
	hdrSection    = "Section Header"
	hdrFieldType  = "Field Type"
	hdrLabel      = "Field Label"
	hdrChoices    = "Choices, Calculations, OR Slider Labels"
	hdrNote       = "Field Note"
	hdrValidation = "Text Validation Type OR Show Slider Number"
	hdrMin        = "Text Validation Min"
	hdrMax        = "Text Validation Max"
	hdrBranching  = "Branching Logic (Show field only if...)"
	hdrRequired   = "Required Field?"
	hdrAnnotation = "Field Annotation"
)

// Column identifies one output column of the survey sheet. The set is
// closed; every column is bound to its converter in convertRow.
type Column int

const (
	ColName Column = iota
	ColType
	ColLabel
	ColConstraint
	ColRelevant
	ColRequired
	ColHint
	ColCalculation
	ColDefault
	ColReadOnly
)

var columnNames = [...]string{
	ColName:        "name",
	ColType:        "type",
	ColLabel:       "label",
	ColConstraint:  "constraint",
	ColRelevant:    "relevant",
	ColRequired:    "required",
	ColHint:        "hint",
	ColCalculation: "calculation",
	ColDefault:     "default",
	ColReadOnly:    "read_only",
}

func (c Column) String() string { return columnNames[c] }

// headerToColumn maps recognized REDCap headers to their survey-sheet
// column. Headers without a mapping are dropped from the output.
var headerToColumn = map[string]Column{
	hdrFieldName: ColName,
	hdrFieldType: ColType,
	hdrLabel:     ColLabel,
	hdrMin:       ColConstraint,
	hdrBranching: ColRelevant,
	hdrRequired:  ColRequired,
	hdrNote:      ColHint,
}

// computedColumns are always appended after the mapped headers; they have
// no single source column.
var computedColumns = []Column{ColCalculation, ColDefault, ColReadOnly}

const (
	typeCalculate = "calculate"

	fieldTypeYesNo    = "yesno"
	fieldTypeCalc     = "calc"
	fieldTypeRadio    = "radio"
	fieldTypeCheckbox = "checkbox"
	fieldTypeDropdown = "dropdown"
)

var directTypeLookup = map[string]string{
	"descriptive": "note",
	"notes":       "text",
	fieldTypeCalc: typeCalculate,
}

var choiceTypeLookup = map[string]string{
	fieldTypeRadio:    "select_one",
	fieldTypeCheckbox: "select_multiple",
	fieldTypeDropdown: "select_one",
}

var validationTypeLookup = map[string]string{
	"date_dmy": "date",
	"time":     "time",
	"number":   "decimal",
	"integer":  "integer",
}

// FieldType resolves a REDCap type/validation pair to an XLSForm type.
// Choice-bearing types (radio, checkbox, dropdown) come back without
// their list name and wantsList set; the assembler appends the shared
// list name once the choice set has been resolved against the registry.
func FieldType(fieldType, validation string) (xlsType string, wantsList bool) {
	if fieldType == fieldTypeYesNo {
		return "select_one yes_no", false
	}
	if t, ok := directTypeLookup[fieldType]; ok {
		return t, false
	}
	if t, ok := choiceTypeLookup[fieldType]; ok {
		return t, true
	}
	if t, ok := validationTypeLookup[validation]; ok {
		return t, false
	}
	return "text", false
}

func listName(index int) string {
	return "list_" + strconv.Itoa(index)
}

// Label renders a field label as plain text, flattening any embedded
// HTML. A field without a label falls back to its variable name.
func Label(label, name string) string {
	if label == "" {
		return name
	}
	text, err := html2text.FromString(label)
	if err != nil {
		return label
	}
	return text
}

// Constraint builds an XLSForm constraint expression from optional
// numeric bounds, referencing the current answer as ".".
func Constraint(min, max string) string {
	var parts []string
	if min != "" {
		parts = append(parts, fmt.Sprintf("(. >= %s)", min))
	}
	if max != "" {
		parts = append(parts, fmt.Sprintf("(. <= %s)", max))
	}
	return strings.Join(parts, " and ")
}

// Required maps REDCap's y flag to XLSForm's yes/no vocabulary.
func Required(raw string) string {
	if raw == "y" {
		return "yes"
	}
	return "no"
}

// ParseChoices splits a pipe-delimited REDCap choice definition into
// tagged entries. Each definition splits on its first comma, or its
// first colon when no comma is present; a definition with neither
// delimiter is a fatal data error.
func ParseChoices(raw, list string) ([]types.Choice, error) {
	if raw == "" {
		return nil, nil
	}
	var choices []types.Choice
	for _, def := range strings.Split(raw, "|") {
		var name, label string
		switch {
		case strings.Contains(def, ","):
			name, label, _ = strings.Cut(def, ",")
		case strings.Contains(def, ":"):
			name, label, _ = strings.Cut(def, ":")
		default:
			return nil, fmt.Errorf("cannot read choice in this format: %s", def)
		}
		choices = append(choices, types.Choice{
			ListName: list,
			Name:     strings.TrimSpace(name),
			Label:    strings.TrimSpace(label),
		})
	}
	return choices, nil
}
