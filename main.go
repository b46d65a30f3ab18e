// Command redform converts REDCap data dictionary exports into XLSForm
// workbooks for KoboToolbox. Run with a filename for a one-shot
// conversion, or without one to pick the file and options interactively.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nconklindev/redform/internal/converter"
	"github.com/nconklindev/redform/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cli struct {
	Filename   string           `arg:"" optional:"" help:"REDCap data dictionary CSV to convert. Omit to pick a file interactively." type:"existingfile"`
	Savefile   string           `short:"s" help:"Name of the converted file. Defaults to the input name with the extension swapped for the mode."`
	Mode       string           `short:"m" enum:"zip_xls,single_xls" default:"zip_xls" help:"zip_xls writes one workbook per form into a zip archive; single_xls writes a single workbook."`
	Copycolumn []string         `short:"c" help:"Additional REDCap columns to copy verbatim into the survey sheet."`
	Version    kong.VersionFlag `short:"v" help:"Print version information."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("redform"),
		kong.Description("Convert REDCap form exports into XLSForm workbooks for KoboToolbox."),
		kong.Vars{"version": fmt.Sprintf("redform %s\ncommit: %s\nbuilt: %s", version, commit, date)},
	)

	mode := converter.Mode(cli.Mode)

	if cli.Filename == "" {
		p := tea.NewProgram(ui.InitialModel(mode, cli.Copycolumn), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		return
	}

	savefile := cli.Savefile
	if savefile == "" {
		savefile = converter.DefaultOutputPath(cli.Filename, mode)
	}

	result, err := converter.Run(cli.Filename, savefile, mode, cli.Copycolumn, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cross *converter.CrossFormError
		if errors.As(err, &cross) {
			os.Exit(1)
		}
		os.Exit(2)
	}

	fmt.Printf("Converted %d row(s) across %d form(s) into %s\n",
		result.RowsProcessed, len(result.Forms), result.OutputFile)
}
