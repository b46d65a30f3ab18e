package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nconklindev/redform/internal/converter"
	"github.com/nconklindev/redform/internal/types"
)

type state int

const (
	stateFilePicker state = iota
	stateColumnSelection
	stateProcessing
	stateComplete
	stateError
)

// Model walks the user from file selection through column/mode options
// to a finished conversion.
type Model struct {
	state        state
	filepicker   filepicker.Model
	selectedFile string
	fileData     *types.FileData
	selectedCols map[int]bool
	requested    []string
	mode         converter.Mode
	cursor       int
	result       *types.ConversionResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	err    error
}

type fileLoadedMsg struct {
	data *types.FileData
	err  error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel seeds the picker with the packaging mode and copy columns
// requested on the command line; the columns are preselected once the
// file's headers are known.
func InitialModel(mode converter.Mode, copyColumns []string) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#2DD4BF", "#5EEAD4"))

	return Model{
		state:        stateFilePicker,
		filepicker:   fp,
		selectedCols: make(map[int]bool),
		requested:    copyColumns,
		mode:         mode,
		progress:     prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateColumnSelection:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.fileData.Headers)-1 {
					m.cursor++
				}
			case " ":
				m.selectedCols[m.cursor] = !m.selectedCols[m.cursor]
			case "m":
				if m.mode == converter.ModeZip {
					m.mode = converter.ModeSingle
				} else {
					m.mode = converter.ModeZip
				}
			case "enter":
				m.state = stateProcessing
				return m.convertFile()
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.fileData = msg.data

		// Preselect any columns requested with -c.
		for i, header := range msg.data.Headers {
			for _, want := range m.requested {
				if header == want {
					m.selectedCols[i] = true
				}
			}
		}

		m.state = stateColumnSelection
		return m, nil

	case conversionResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := converter.ReadCSV(path)
		return fileLoadedMsg{data: data, err: err}
	}
}

func (m Model) copyColumns() []string {
	var indices []int
	for i, selected := range m.selectedCols {
		if selected {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	var columns []string
	for _, i := range indices {
		if i < len(m.fileData.Headers) {
			columns = append(columns, m.fileData.Headers[i])
		}
	}
	return columns
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	inputFile := m.selectedFile
	outputFile := converter.DefaultOutputPath(inputFile, m.mode)
	mode := m.mode
	columns := m.copyColumns()
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := converter.Run(inputFile, outputFile, mode, columns, progressChan)
				resultChan <- conversionResultMsg{result: result, err: err}
				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateColumnSelection:
		return m.viewColumnSelection()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("RedForm - REDCap to XLSForm Converter"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a REDCap data dictionary CSV to convert"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewColumnSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Select Columns to Copy"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Checked columns are copied verbatim into the survey sheet"))
	s.WriteString("\n\n")

	for i, header := range m.fileData.Headers {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if m.selectedCols[i] {
			checked = "x"
		}

		line := fmt.Sprintf("%s [%s] %s", cursor, checked, header)

		if m.cursor == i {
			line = SelectedStyle.Render(line)
		} else if m.selectedCols[i] {
			line = CheckedStyle.Render(line)
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	modeLabel := "one workbook per form, zipped"
	if m.mode == converter.ModeSingle {
		modeLabel = "single workbook"
	}
	s.WriteString(fmt.Sprintf("Output: %s (%s)\n", modeLabel, m.mode))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • space: toggle • m: switch mode • enter: convert • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Converting..."))
	s.WriteString("\n\n")
	s.WriteString("Translating REDCap fields into XLSForm...")
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Conversion Complete"))
	s.WriteString("\n\n")

	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	inputPath := m.result.InputFile
	if len(inputPath) > maxPathLen {
		inputPath = "..." + inputPath[len(inputPath)-maxPathLen+3:]
	}

	outputPath := m.result.OutputFile
	if len(outputPath) > maxPathLen {
		outputPath = "..." + outputPath[len(outputPath)-maxPathLen+3:]
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", inputPath))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s\n", outputPath)))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Forms written: %d\n", len(m.result.Forms)))
	s.WriteString(fmt.Sprintf("Rows converted: %d\n", m.result.RowsProcessed))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}
