package converter

import (
	"archive/zip"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/nconklindev/redform/internal/types"
)

func testContent(name string) *types.XLSContent {
	return &types.XLSContent{
		Name:    name,
		Headers: []string{"name", "type", "label"},
		Questions: [][]string{
			{"age", "integer", "Age in years"},
			{"color", "select_one list_0", "Favorite color"},
		},
		Choices: append(defaultChoices(),
			types.Choice{ListName: "list_0", Name: "1", Label: "Red"},
			types.Choice{ListName: "list_0", Name: "2", Label: "Blue"},
		),
	}
}

func TestWriteOutputSingle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	if err := WriteOutput(path, ModeSingle, []*types.XLSContent{testContent("intake")}); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook failed: %v", err)
	}
	defer f.Close()

	survey, err := f.GetRows(surveySheet)
	if err != nil {
		t.Fatalf("reading survey sheet failed: %v", err)
	}
	if len(survey) != 3 {
		t.Fatalf("expected 3 survey rows, got %d", len(survey))
	}
	if survey[0][0] != "name" || survey[0][1] != "type" {
		t.Errorf("survey header = %v", survey[0])
	}
	if survey[1][0] != "age" || survey[1][1] != "integer" {
		t.Errorf("survey row 1 = %v", survey[1])
	}

	choices, err := f.GetRows(choicesSheet)
	if err != nil {
		t.Fatalf("reading choices sheet failed: %v", err)
	}
	if choices[0][0] != "list name" {
		t.Errorf("choices header = %v", choices[0])
	}
	if choices[1][0] != "yes_no" || choices[1][1] != "yes" || choices[1][2] != "Yes" {
		t.Errorf("first choice row = %v", choices[1])
	}
	if choices[3][0] != "list_0" || choices[3][1] != "1" || choices[3][2] != "Red" {
		t.Errorf("first list entry row = %v", choices[3])
	}
}

func TestWriteOutputZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.zip")
	contents := []*types.XLSContent{testContent("intake"), testContent("health")}

	if err := WriteOutput(path, ModeZip, contents); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}

	archive, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("reopening archive failed: %v", err)
	}
	defer archive.Close()

	members := make(map[string]bool)
	for _, file := range archive.File {
		members[file.Name] = true
	}
	for _, want := range []string{"intake.xlsx", "health.xlsx"} {
		if !members[want] {
			t.Errorf("archive is missing member %q (has %v)", want, members)
		}
	}
}

func TestWriteOutputNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	if err := WriteOutput(path, ModeSingle, nil); err == nil {
		t.Fatal("expected an error with no content to write")
	}
}
