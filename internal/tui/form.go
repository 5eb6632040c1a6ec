package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/upload-form/internal/config"
	"github.com/HaiFongPan/upload-form/internal/export"
	"github.com/HaiFongPan/upload-form/internal/form"
	"github.com/HaiFongPan/upload-form/internal/picker"
	"github.com/HaiFongPan/upload-form/internal/sheet"
	layout "github.com/HaiFongPan/upload-form/internal/tui/config"
	"github.com/HaiFongPan/upload-form/internal/tui/messaging"
	"github.com/HaiFongPan/upload-form/internal/tui/theme"
	"github.com/HaiFongPan/upload-form/internal/transport"
)

type focusArea int

const (
	focusText focusArea = iota
	focusExcel
	focusResult
	focusCount
)

// Message types for tea.Cmd communication
type uploadFinishedMsg struct {
	payload form.Payload
	resp    *form.Response
	err     error
}

type uploadProgressMsg struct {
	percent float64
}

type exportDoneMsg struct {
	action   string
	location string
	err      error
}

// FormModel is the interactive upload form. All form transitions go through
// form.Reduce; effects are run as tea.Cmds.
type FormModel struct {
	state     form.State
	transport form.Transport
	config    *config.Config
	userData  *config.UserData

	inputs [2]textinput.Model
	focus  focusArea

	fileSink      export.Sink
	clipboardSink export.Sink
	archiveSink   export.Sink

	status        messaging.StatusManager
	keyMap        KeyMap
	help          help.Model
	spinner       spinner.Model
	progress      progress.Model
	result        viewport.Model
	uploadPercent float64
	uploading     string
	showHelp      bool
	windowWidth   int
	windowHeight  int
	program       *tea.Program
}

// NewFormModel creates the form. Recent paths from userData are prefilled.
func NewFormModel(cfg *config.Config, t form.Transport, userData *config.UserData) *FormModel {
	textInput := newPathInput("path/to/document.txt")
	excelInput := newPathInput("path/to/workbook.xlsx")
	if userData != nil && cfg.UI.RememberFiles {
		textInput.SetValue(userData.LastTextFile)
		excelInput.SetValue(userData.LastExcelFile)
	}
	textInput.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.CreateLoadingStyle()

	vp := viewport.New(layout.DefaultWindowWidth-layout.PanelPadding, layout.MinResultHeight)

	return &FormModel{
		state:         form.NewState(),
		transport:     t,
		config:        cfg,
		userData:      userData,
		inputs:        [2]textinput.Model{textInput, excelInput},
		focus:         focusText,
		fileSink:      export.FileSink{Dir: cfg.Export.Directory},
		clipboardSink: export.ClipboardSink{},
		status:        messaging.NewStatusManager(),
		keyMap:        DefaultKeyMap(),
		help:          help.New(),
		spinner:       s,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(layout.ProgressBarWidth)),
		result:        vp,
		windowWidth:   layout.DefaultWindowWidth,
		windowHeight:  layout.DefaultWindowHeight,
	}
}

func newPathInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = layout.InputCharLimit
	ti.Width = layout.DefaultWindowWidth - layout.InputWidthPadding
	ti.Prompt = "› "
	return ti
}

// SetProgram sets the tea.Program reference for direct message sending
func (m *FormModel) SetProgram(p *tea.Program) {
	m.program = p
}

// SetTransport replaces the transport uploads are sent through
func (m *FormModel) SetTransport(t form.Transport) {
	m.transport = t
}

// SetArchiveSink enables the archive key
func (m *FormModel) SetArchiveSink(sink export.Sink) {
	m.archiveSink = sink
}

// ReportProgress is a transport.ProgressCallback that forwards progress to
// the running program.
func (m *FormModel) ReportProgress(sent, total int64, percentage float64) {
	if m.program != nil {
		m.program.Send(uploadProgressMsg{percent: percentage / 100})
	}
}

// State returns the current form snapshot
func (m *FormModel) State() form.State {
	return m.state
}

// Init implements the bubbletea.Model interface
func (m *FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements the bubbletea.Model interface
func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case uploadFinishedMsg:
		cmd := m.dispatch(form.UploadFinished{Response: msg.resp, Err: msg.err})
		m.uploading = ""
		if m.state.Phase() == form.PhaseSucceeded {
			m.rememberFile(msg.payload)
		}
		return m, cmd

	case uploadProgressMsg:
		m.uploadPercent = msg.percent
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			logrus.Errorf("%s failed: %v", msg.action, msg.err)
			m.status.SetMessage(theme.FormatErrorMessage(msg.action, msg.err), messaging.MessageError)
		} else {
			m.status.SetMessage(fmt.Sprintf("Result saved to %s", msg.location), messaging.MessageSuccess)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.state.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m *FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.NextField):
		return m, m.setFocus((m.focus + 1) % focusCount)

	case key.Matches(msg, m.keyMap.PrevField):
		return m, m.setFocus((m.focus + focusCount - 1) % focusCount)

	case key.Matches(msg, m.keyMap.Submit):
		if m.state.Loading() {
			return m, nil
		}
		return m, m.dispatch(form.Submit{})
	}

	if m.focus != focusResult {
		if key.Matches(msg, m.keyMap.Pick) {
			return m, m.pick(form.Slot(m.focus + 1))
		}
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keyMap.Download):
		return m, m.export("Download", m.fileSink)
	case key.Matches(msg, m.keyMap.Copy):
		return m, m.export("Copy", m.clipboardSink)
	case key.Matches(msg, m.keyMap.Archive):
		if m.archiveSink == nil {
			m.status.SetMessage("Archiving is not configured (export.r2.enabled)", messaging.MessageWarning)
			return m, nil
		}
		return m, m.export("Archive", m.archiveSink)
	}

	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused input or the result viewport.
func (m *FormModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusResult {
		m.result, cmd = m.result.Update(msg)
		return m, cmd
	}
	i := int(m.focus)
	m.inputs[i], cmd = m.inputs[i].Update(msg)
	return m, cmd
}

func (m *FormModel) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if focusArea(i) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// pick turns the typed path into a selection for slot. An empty path is a
// cancelled pick.
func (m *FormModel) pick(slot form.Slot) tea.Cmd {
	path := expandHome(strings.TrimSpace(m.inputs[slot-1].Value()))

	var file *picker.File
	if path != "" {
		f, err := picker.FromPath(path)
		if err != nil {
			logrus.Warnf("Cannot pick %s: %v", path, err)
			m.status.SetMessage(fmt.Sprintf("Cannot open %s: %v", path, err), messaging.MessageError)
			return nil
		}
		file = f
	}

	if slot == form.SlotExcel {
		sheet.LogSummary(file)
		return m.dispatch(form.SelectExcel{File: file})
	}
	return m.dispatch(form.SelectText{File: file})
}

// dispatch applies ev and returns the command for its effect.
func (m *FormModel) dispatch(ev form.Event) tea.Cmd {
	prev := m.state
	next, effect := form.Reduce(m.state, ev)
	m.state = next

	if prev.Phase() != next.Phase() {
		logrus.Debugf("form: %T moved %s -> %s", ev, prev.Phase(), next.Phase())
	}
	m.syncStatus()
	m.syncResult()

	switch effect.Kind {
	case form.EffectResetPicker:
		for _, slot := range effect.Reset {
			m.inputs[slot-1].Reset()
		}
	case form.EffectUpload:
		m.uploadPercent = 0
		m.uploading = effect.Payload.File.Name
		m.syncStatus()
		return tea.Batch(m.spinner.Tick, m.upload(effect.Payload))
	}
	return nil
}

func (m *FormModel) upload(payload form.Payload) tea.Cmd {
	t := m.transport
	return func() tea.Msg {
		resp, err := form.Send(context.Background(), t, payload)
		if err != nil {
			logrus.Errorf("Upload of %s failed: %v", payload.File.Name, err)
		}
		return uploadFinishedMsg{payload: payload, resp: resp, err: err}
	}
}

func (m *FormModel) export(action string, sink export.Sink) tea.Cmd {
	if !m.state.HasResult() {
		m.status.SetMessage("No result to download yet", messaging.MessageWarning)
		return nil
	}

	result := m.state.Result()
	name := m.config.Export.FileName
	return func() tea.Msg {
		data, err := export.Render(result)
		if err != nil {
			return exportDoneMsg{action: action, err: err}
		}
		location, err := sink.Save(context.Background(), name, data)
		return exportDoneMsg{action: action, location: location, err: err}
	}
}

func (m *FormModel) syncStatus() {
	switch {
	case m.state.Loading():
		name := m.uploading
		if name == "" {
			name = "file"
		}
		m.status.SetMessage(theme.FormatProgressMessage("Uploading", name, -1), messaging.MessageInfo)
	case m.state.ErrorMessage() != "":
		m.status.SetMessage(m.state.ErrorMessage(), messaging.MessageError)
	case m.state.SuccessMessage() != "":
		m.status.SetMessage(m.state.SuccessMessage(), messaging.MessageSuccess)
	default:
		m.status.ClearMessage()
	}
}

func (m *FormModel) syncResult() {
	if !m.state.HasResult() {
		m.result.SetContent("")
		return
	}
	rendered, err := export.Render(m.state.Result())
	if err != nil {
		m.result.SetContent(string(m.state.Result()))
		return
	}
	m.result.SetContent(string(rendered))
	m.result.GotoTop()
}

func (m *FormModel) rememberFile(payload form.Payload) {
	if m.userData == nil || !m.config.UI.RememberFiles || payload.File == nil || payload.File.Path == "" {
		return
	}

	var err error
	if payload.Field == form.FieldExcel {
		err = m.userData.SetLastExcelFile(payload.File.Path)
	} else {
		err = m.userData.SetLastTextFile(payload.File.Path)
	}
	if err != nil {
		logrus.Warnf("Failed to save recent file: %v", err)
	}
}

func (m *FormModel) resize(width, height int) {
	m.windowWidth = width
	m.windowHeight = height

	inputWidth := max(layout.MinInputWidth, width-layout.InputWidthPadding)
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}

	m.result.Width = max(layout.MinInputWidth, width-layout.PanelPadding)
	m.result.Height = max(layout.MinResultHeight, height-layout.ReservedRows)
	m.progress.Width = min(layout.ProgressBarWidth, max(10, width-layout.PanelPadding))
}

// View implements the bubbletea.Model interface
func (m *FormModel) View() string {
	endpoint := ""
	if m.config != nil {
		endpoint = m.config.Server.Endpoint
	}
	header := theme.CreateHeaderStyle().Render(fmt.Sprintf("📤 Upload Form · %s", endpoint))

	sections := []string{
		header,
		m.renderInput(form.SlotText, "Text file (.txt)"),
		m.renderInput(form.SlotExcel, "Spreadsheet (.xlsx)"),
		m.renderStatus(),
		m.renderResult(),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelpDialog())
	}

	footer := theme.CreateFooterStyle().Render(m.help.ShortHelpView(m.keyMap.ShortHelp()))
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *FormModel) renderInput(slot form.Slot, label string) string {
	width := max(layout.MinInputWidth, m.windowWidth-layout.PanelPadding)
	style := theme.CreateUnifiedPanelStyle(width)
	if m.focus == focusArea(slot-1) {
		style = theme.CreateFocusedPanelStyle(width)
	}

	var b strings.Builder
	b.WriteString(theme.CreateSectionHeaderStyle().Render(label))
	b.WriteString("\n")
	b.WriteString(m.inputs[slot-1].View())
	b.WriteString("\n")

	if file := m.state.Selected(slot); file != nil {
		category := picker.Category(file.MediaType)
		name := truncate(file.Name, layout.FileNameTruncateAt)
		b.WriteString(fmt.Sprintf("✓ %s (%s, %s)",
			theme.CreateFileNameStyle(category).Render(name),
			file.MediaType,
			transport.FormatBytes(file.Size)))
	} else {
		b.WriteString(theme.CreateSecondaryTextStyle().Render("No file selected"))
	}

	return style.Render(b.String())
}

func (m *FormModel) renderStatus() string {
	if !m.state.Loading() {
		return m.status.RenderMessage()
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.status.RenderMessage())
	bar := m.progress.ViewAs(m.uploadPercent)
	return lipgloss.JoinVertical(lipgloss.Left, line, bar)
}

func (m *FormModel) renderResult() string {
	width := max(layout.MinInputWidth, m.windowWidth-layout.PanelPadding)
	style := theme.CreateUnifiedPanelStyle(width)
	if m.focus == focusResult {
		style = theme.CreateFocusedPanelStyle(width)
	}

	title := theme.CreateSectionHeaderStyle().Render("Result")
	if !m.state.HasResult() {
		return style.Render(title + "\n" + theme.CreateSecondaryTextStyle().Render("No result yet"))
	}

	hint := theme.CreateSecondaryTextStyle().Render(
		fmt.Sprintf("%3.f%% · d download · c copy · a archive", m.result.ScrollPercent()*100))
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.result.View(), hint))
}

func (m *FormModel) renderHelpDialog() string {
	title := theme.CreateSectionHeaderStyle().Render("🚀 Upload Form - Help")
	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.help.FullHelpView(m.keyMap.FullHelp()),
		"",
		theme.CreateSecondaryTextStyle().Render("Letter keys work when the result panel is focused. Press ? to close."),
	)
	return theme.CreateDialogStyle(min(layout.HelpDialogWidth, m.windowWidth), theme.ColorBrightYellow).Render(content)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
