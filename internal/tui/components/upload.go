package components

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

type uploadDoneMsg struct {
	err    error
	result *model.UploadResult
	token  viewmodel.FetchToken
}

type processDoneMsg struct {
	err    error
	result *model.ProcessResult
	token  viewmodel.FetchToken
}

type templateDoneMsg struct {
	err   error
	path  string
	owner int64
}

// Upload drives the upload and process flow.
type Upload struct {
	fetch    *viewmodel.Fetcher
	deps     Deps
	theme    themes.Theme
	notice   string
	path     textinput.Model
	picker   filepicker.Model
	spinner  spinner.Model
	flow     viewmodel.UploadFlow
	width    int
	typing   bool
	picking  bool
	fetching bool
}

// NewUpload creates the upload view.
func NewUpload(deps Deps, theme themes.Theme) *Upload {
	path := textinput.New()
	path.Placeholder = "Paste or drop a .csv path, then press enter"
	path.Prompt = "File: "
	path.CharLimit = 4096
	path.Width = 60

	picker := filepicker.New()
	if wd, err := os.Getwd(); err == nil {
		picker.CurrentDirectory = wd
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	return &Upload{
		deps:    deps,
		theme:   theme,
		fetch:   viewmodel.NewFetcher(),
		path:    path,
		picker:  picker,
		spinner: sp,
	}
}

// Init has no mount fetch.
func (u *Upload) Init() tea.Cmd {
	return nil
}

// Flow exposes the state machine.
func (u *Upload) Flow() viewmodel.UploadFlow {
	return u.flow
}

func (u *Upload) selectFile(path string) {
	u.notice = ""
	if err := u.flow.SelectFile(path); errors.Is(err, viewmodel.ErrUploadInFlight) {
		u.flow.SetError(viewmodel.BusyMessage)
	}
}

func (u *Upload) upload() tea.Cmd {
	if err := u.flow.StartUpload(); err != nil {
		return nil
	}
	u.notice = ""
	ctx, token := u.fetch.Next(context.Background())
	client, file := u.deps.Client, u.flow.File
	return tea.Batch(func() tea.Msg {
		f, err := os.Open(file)
		if err != nil {
			return uploadDoneMsg{token: token, err: fmt.Errorf("cannot read %s: %w", filepath.Base(file), err)}
		}
		defer func() { _ = f.Close() }()
		result, err := client.Upload(ctx, filepath.Base(file), f)
		return uploadDoneMsg{token: token, result: result, err: err}
	}, u.spinner.Tick)
}

func (u *Upload) process() tea.Cmd {
	if err := u.flow.StartProcess(); err != nil {
		return nil
	}
	u.notice = ""
	ctx, token := u.fetch.Next(context.Background())
	client := u.deps.Client
	return tea.Batch(func() tea.Msg {
		result, err := client.Process(ctx)
		return processDoneMsg{token: token, result: result, err: err}
	}, u.spinner.Tick)
}

func (u *Upload) downloadTemplate() tea.Cmd {
	if u.fetching {
		return nil
	}
	u.fetching = true
	client := u.deps.Client
	owner := u.fetch.Current().Owner
	path := filepath.Join(u.deps.DownloadDir, ingest.TemplateFileName)
	return func() tea.Msg {
		data, err := client.DownloadTemplate(context.Background())
		if err == nil {
			err = os.WriteFile(path, data, 0o600)
		}
		return templateDoneMsg{owner: owner, path: path, err: err}
	}
}

// Update handles messages.
func (u *Upload) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case uploadDoneMsg:
		if !u.fetch.Accept(msg.token) {
			return u, nil
		}
		if msg.err != nil {
			_ = u.flow.UploadFailed(api.Message(msg.err))
			return u, nil
		}
		if u.flow.UploadSucceeded(*msg.result) == nil {
			u.flow.DismissError()
		}
		return u, nil

	case processDoneMsg:
		if !u.fetch.Accept(msg.token) {
			return u, nil
		}
		if msg.err != nil {
			_ = u.flow.ProcessFailed(api.Message(msg.err))
			return u, nil
		}
		if u.flow.ProcessSucceeded(*msg.result) == nil {
			u.flow.DismissError()
		}
		return u, nil

	case templateDoneMsg:
		if msg.owner != u.fetch.Current().Owner {
			return u, nil
		}
		u.fetching = false
		if msg.err != nil {
			u.flow.SetError(viewmodel.TemplateFailedMessage + ": " + api.Message(msg.err))
			return u, nil
		}
		u.notice = "Template saved to " + msg.path
		return u, nil

	case spinner.TickMsg:
		if !u.flow.Busy() {
			return u, nil
		}
		var cmd tea.Cmd
		u.spinner, cmd = u.spinner.Update(msg)
		return u, cmd

	case tea.WindowSizeMsg:
		u.width = msg.Width
		u.path.Width = min(max(msg.Width-10, 20), 80)
		var cmd tea.Cmd
		u.picker, cmd = u.picker.Update(msg)
		return u, cmd

	case tea.KeyMsg:
		return u, u.handleKey(msg)
	}

	if u.picking {
		return u, u.updatePicker(msg)
	}
	return u, nil
}

func (u *Upload) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+u":
		return u.upload()
	case "ctrl+p":
		return u.process()
	case "ctrl+t":
		return u.downloadTemplate()
	}

	switch {
	case u.picking:
		if msg.String() == "esc" {
			u.picking = false
			return nil
		}
		return u.updatePicker(msg)

	case u.typing:
		switch msg.String() {
		case "enter":
			u.typing = false
			u.path.Blur()
			u.selectFile(u.path.Value())
			return nil
		case "esc":
			u.typing = false
			u.path.Blur()
			return nil
		}
		var cmd tea.Cmd
		u.path, cmd = u.path.Update(msg)
		return cmd
	}

	if msg.Paste {
		u.selectFile(string(msg.Runes))
		return nil
	}

	switch msg.String() {
	case "f", "enter", "o":
		if u.flow.Busy() {
			u.flow.SetError(viewmodel.BusyMessage)
			return nil
		}
	}

	switch msg.String() {
	case "f", "enter":
		u.typing = true
		u.path.SetValue("")
		return u.path.Focus()
	case "o":
		u.picking = true
		return u.picker.Init()
	case "esc":
		u.flow.DismissError()
		u.notice = ""
	}
	return nil
}

func (u *Upload) updatePicker(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	u.picker, cmd = u.picker.Update(msg)
	if ok, path := u.picker.DidSelectFile(msg); ok {
		u.picking = false
		u.selectFile(path)
	}
	return cmd
}

// Capturing is true while the path input or file picker has focus.
func (u *Upload) Capturing() bool {
	return u.typing || u.picking
}

// Unmount cancels in-flight requests.
func (u *Upload) Unmount() {
	u.fetch.Stop()
}

// View renders the flow.
func (u *Upload) View() string {
	title := u.theme.Title.Render("Upload Purchase Orders")
	sections := []string{
		title,
		u.theme.Subtitle.Render("Required columns: " + strings.Join(model.UploadColumns, ", ")),
		"",
	}

	if u.picking {
		sections = append(sections,
			u.theme.Bold.Render("Choose a CSV file"),
			u.picker.View(),
			u.theme.Faint.Render("enter select · esc close"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, u.path.View())
	if u.flow.File != "" {
		sections = append(sections, u.theme.Normal.Render("Selected: ")+u.theme.Bold.Render(u.flow.FileName()))
	}
	sections = append(sections, "", u.renderSteps(), "")

	switch u.flow.State {
	case viewmodel.UploadUploading:
		sections = append(sections, u.spinner.View()+" Uploading "+u.flow.FileName()+"…")
	case viewmodel.UploadProcessing:
		sections = append(sections, u.spinner.View()+" Processing data… this can take a few minutes")
	}

	if u.flow.Upload != nil {
		sections = append(sections, u.renderPanel("✓ File uploaded successfully", viewmodel.UploadSummary(*u.flow.Upload)))
	}
	if u.flow.Process != nil {
		sections = append(sections, u.renderPanel("✓ Data processed successfully", viewmodel.ProcessSummary(*u.flow.Process)))
	}
	if u.notice != "" {
		sections = append(sections, u.theme.StatusSuccess.Render("✓ "+u.notice))
	}
	if u.flow.Err != "" {
		sections = append(sections, renderError(u.theme, u.flow.Err, "esc"))
	}

	sections = append(sections, "", renderHelpLine(u.theme,
		"f", "type path",
		"o", "browse",
		"ctrl+u", "upload",
		"ctrl+p", "process",
		"ctrl+t", "template",
	))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (u *Upload) renderSteps() string {
	step := func(label string, done, enabled bool) string {
		switch {
		case done:
			return u.theme.StatusSuccess.Render("● " + label)
		case enabled:
			return lipgloss.NewStyle().Foreground(u.theme.Primary).Render("○ " + label)
		default:
			return u.theme.Faint.Render("○ " + label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		step("1 Select file", u.flow.File != "", true), "   ",
		step("2 Upload", u.flow.Upload != nil, u.flow.CanUpload()), "   ",
		step("3 Process", u.flow.Process != nil, u.flow.CanProcess()),
	)
}

func (u *Upload) renderPanel(heading string, facts []string) string {
	lines := append([]string{u.theme.StatusSuccess.Render(heading)}, facts...)
	return u.theme.RoundedBox.Padding(0, 1).BorderForeground(u.theme.Success).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
