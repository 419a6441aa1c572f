package screens

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/services"
)

type screenType int

const (
	reposView screenType = iota
	filesView
	detailsView
)

type RootOptions struct {
	Controller *services.UploaderController
	Clipboard  services.Clipboard
	Progress   <-chan integrations.ExportProgress
	ExportDir  string
}

type RootScreen struct {
	ctx        context.Context
	controller *services.UploaderController
	clipboard  services.Clipboard
	progress   <-chan integrations.ExportProgress
	exportDir  string

	currentView screenType
	repos       *ReposScreen
	files       *FilesScreen
	details     *DetailsScreen

	code   *auth.DeviceCode
	status statusMsg

	width  int
	height int
}

func NewRootScreen(ctx context.Context, opts RootOptions) *RootScreen {
	return &RootScreen{
		ctx:         ctx,
		controller:  opts.Controller,
		clipboard:   opts.Clipboard,
		progress:    opts.Progress,
		exportDir:   opts.ExportDir,
		currentView: reposView,
		repos:       NewReposScreen(ctx, opts.Controller),
		files:       NewFilesScreen(ctx, opts.Controller, opts.ExportDir),
	}
}

// Size is the last terminal size seen.
func (r *RootScreen) Size() (int, int) {
	return r.width, r.height
}

func (r *RootScreen) Init() tea.Cmd {
	cmds := []tea.Cmd{r.listenForCode, r.listenForProgress}
	if r.controller.HasSavedCredentials() {
		cmds = append(cmds, r.connect())
	}
	return tea.Batch(cmds...)
}

func (r *RootScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		// Everything below the header and banner belongs to the screen.
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		r.repos.Update(inner)
		r.files.Update(inner)
		if r.details != nil {
			r.details.Update(inner)
		}
		return r, nil

	case tea.KeyMsg:
		editing := (r.currentView == detailsView && r.details != nil && r.details.Editing()) ||
			(r.currentView == reposView && r.repos.Filtering())
		switch msg.String() {
		case "ctrl+c":
			return r, tea.Quit
		case "q":
			if !editing {
				return r, tea.Quit
			}
		case "ctrl+l":
			r.status = statusMsg{text: "Connecting...", status: "loading"}
			return r, r.connect()
		case "tab":
			if r.currentView == detailsView {
				break
			}
			if r.currentView == reposView {
				r.currentView = filesView
			} else {
				r.currentView = reposView
			}
			return r, nil
		}

	case deviceCodeMsg:
		code := auth.DeviceCode(msg)
		r.code = &code
		return r, r.listenForCode

	case connectedMsg:
		r.code = nil
		if msg.err != nil {
			r.status = statusMsg{text: fmt.Sprintf("Error: %s", msg.err), status: "error"}
		} else if r.controller.State().IsAuthenticated {
			r.status = statusMsg{text: "Connected", status: "complete"}
		} else {
			r.status = statusMsg{text: "Logged out", status: ""}
		}
		r.repos.Refresh()
		r.files.Refresh()
		r.details = nil
		r.currentView = reposView
		if r.controller.State().SelectedRepository != nil {
			r.currentView = filesView
		}
		return r, nil

	case filesFetchedMsg:
		r.files.Refresh()
		if msg.err != nil {
			r.status = statusMsg{text: fmt.Sprintf("Error: %s", msg.err), status: "error"}
		} else {
			r.status = statusMsg{}
			r.currentView = filesView
		}
		return r, nil

	case statusMsg:
		r.status = msg
		return r, nil

	case integrations.ExportProgress:
		if r.details != nil {
			r.details.Update(msg)
		}
		return r, r.listenForProgress

	case SwitchScreenMsg:
		switch msg.Screen {
		case "repos":
			r.currentView = reposView
		case "files":
			r.currentView = filesView
			r.files.Refresh()
		case "details":
			if file, ok := msg.Data.(data.MangaFileInfo); ok {
				r.details = NewDetailsScreen(r.ctx, r.controller, r.clipboard, file, r.exportDir)
				r.details.Update(tea.WindowSizeMsg{Width: r.width, Height: r.height - 4})
				r.currentView = detailsView
				cmd = r.details.Init()
			}
		}
		return r, cmd
	}

	switch r.currentView {
	case reposView:
		_, cmd = r.repos.Update(msg)
	case filesView:
		_, cmd = r.files.Update(msg)
	case detailsView:
		if r.details != nil {
			_, cmd = r.details.Update(msg)
		}
	}
	return r, cmd
}

func (r *RootScreen) View() string {
	if r.width == 0 {
		return "Loading..."
	}

	var content string
	switch r.currentView {
	case reposView:
		content = r.repos.View()
	case filesView:
		content = r.files.View()
	case detailsView:
		if r.details != nil {
			content = r.details.View()
		}
	}

	parts := []string{r.renderHeader()}
	if banner := r.renderDeviceCode(); banner != "" {
		parts = append(parts, banner)
	}
	if tabs := r.renderTabs(); tabs != "" {
		parts = append(parts, tabs)
	}
	parts = append(parts, content)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (r *RootScreen) renderHeader() string {
	state := r.controller.State()

	login := "○ " + state.User.Login
	if state.IsAuthenticated {
		login = "● " + state.User.Login
	}
	left := login
	if state.SelectedRepository != nil {
		left += "  ⎇ " + state.SelectedRepository.Name
	}

	status := r.status.text
	if state.IsLoading && status == "" {
		status = "Loading..."
	}
	right := styles.StatusStyle(r.status.status).Render(status)

	gap := r.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.HeaderStyle.Width(r.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}

func (r *RootScreen) renderDeviceCode() string {
	if r.code == nil {
		return ""
	}
	text := fmt.Sprintf("Open %s and enter %s (copied to clipboard)", r.code.VerificationURI, r.code.UserCode)
	return styles.CodeStyle.Render(text)
}

func (r *RootScreen) renderTabs() string {
	if r.currentView == detailsView {
		return ""
	}

	reposTab, filesTab := "Repositories", "Files"
	if r.currentView == reposView {
		reposTab = styles.ActiveTabStyle.Render(reposTab)
		filesTab = styles.InactiveTabStyle.Render(filesTab)
	} else {
		reposTab = styles.InactiveTabStyle.Render(reposTab)
		filesTab = styles.ActiveTabStyle.Render(filesTab)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, reposTab, filesTab)
}

// Commands
func (r *RootScreen) connect() tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: r.controller.Connect(r.ctx)}
	}
}

func (r *RootScreen) listenForCode() tea.Msg {
	return deviceCodeMsg(<-r.controller.DeviceCodes())
}

func (r *RootScreen) listenForProgress() tea.Msg {
	if r.progress == nil {
		return nil
	}
	p, ok := <-r.progress
	if !ok {
		return nil
	}
	return p
}
