package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/services"
)

type ReposScreen struct {
	ctx        context.Context
	controller *services.UploaderController
	filter     textinput.Model
	repos      []data.RepositoryInfo
	selected   int
	width      int
	height     int
	err        error
}

func NewReposScreen(ctx context.Context, controller *services.UploaderController) *ReposScreen {
	ti := textinput.New()
	ti.Placeholder = "Filter repositories..."
	ti.CharLimit = 100
	ti.Width = 50

	s := &ReposScreen{ctx: ctx, controller: controller, filter: ti}
	s.Refresh()
	return s
}

// Filtering reports whether keys go to the filter input.
func (s *ReposScreen) Filtering() bool {
	return s.filter.Focused()
}

// Refresh reloads the repositories from the controller.
func (s *ReposScreen) Refresh() {
	s.repos = s.controller.State().Repositories
	if s.selected >= len(s.visible()) {
		s.selected = 0
	}
}

func (s *ReposScreen) visible() []data.RepositoryInfo {
	query := strings.ToLower(strings.TrimSpace(s.filter.Value()))
	if query == "" {
		return s.repos
	}
	var out []data.RepositoryInfo
	for _, r := range s.repos {
		if strings.Contains(strings.ToLower(r.Name), query) {
			out = append(out, r)
		}
	}
	return out
}

func (s *ReposScreen) Init() tea.Cmd {
	return nil
}

func (s *ReposScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return s, nil

	case tea.KeyMsg:
		if s.filter.Focused() {
			switch msg.String() {
			case "esc", "enter":
				s.filter.Blur()
				s.selected = 0
				return s, nil
			}
			s.filter, cmd = s.filter.Update(msg)
			s.selected = 0
			return s, cmd
		}

		visible := s.visible()
		switch msg.String() {
		case "/":
			s.filter.Focus()
			return s, textinput.Blink
		case "up", "k":
			if len(visible) > 0 {
				s.selected = (s.selected - 1 + len(visible)) % len(visible)
			}
		case "down", "j":
			if len(visible) > 0 {
				s.selected = (s.selected + 1) % len(visible)
			}
		case "r":
			return s, s.fetchRepositories
		case "enter":
			if s.selected < len(visible) {
				return s, s.openRepository(visible[s.selected].Name)
			}
		}

	case reposFetchedMsg:
		s.err = msg.err
		s.Refresh()
	}

	return s, nil
}

func (s *ReposScreen) View() string {
	state := s.controller.State()
	header := styles.TitleStyle.Render("Repositories")

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	inputStyle := styles.InputStyle
	if s.filter.Focused() {
		inputStyle = styles.FocusedInputStyle
	}
	filter := inputStyle.Render(s.filter.View())

	var list strings.Builder
	visible := s.visible()
	switch {
	case !state.IsAuthenticated:
		list.WriteString(styles.MutedStyle.Render("Press ctrl+l to log in to GitHub"))
	case len(visible) == 0:
		list.WriteString(styles.MutedStyle.Render("No repositories"))
	default:
		for i, repo := range visible {
			marker := " "
			if state.SelectedRepository != nil && state.SelectedRepository.ID == repo.ID {
				marker = "●"
			}
			var line string
			if i == s.selected {
				line = styles.SelectedStyle.Render("▸" + marker + " " + repo.Name)
			} else {
				line = styles.TextStyle.Render(" " + marker + " " + repo.Name)
			}
			list.WriteString(line)
			list.WriteString("\n")
		}
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • enter: open • /: filter • r: refresh • ctrl+l: log in/out • tab: switch view • q: quit",
	)

	return fmt.Sprintf("%s\n%s%s\n\n%s\n%s", header, errorMsg, filter, list.String(), help)
}

// Commands
func (s *ReposScreen) fetchRepositories() tea.Msg {
	return reposFetchedMsg{err: s.controller.FetchRepositories(s.ctx)}
}

func (s *ReposScreen) openRepository(name string) tea.Cmd {
	return func() tea.Msg {
		if err := s.controller.SelectRepository(name); err != nil {
			return filesFetchedMsg{err: err}
		}
		return filesFetchedMsg{err: s.controller.FetchSelectedRepo(s.ctx)}
	}
}
