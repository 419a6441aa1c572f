package screens

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shohabby/manga-uploader/pkg/app/components"
	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/services"
)

type FilesScreen struct {
	ctx        context.Context
	controller *services.UploaderController
	fileList   *components.FileList
	exportDir  string
	width      int
	height     int
	note       string
	err        error
}

func NewFilesScreen(ctx context.Context, controller *services.UploaderController, exportDir string) *FilesScreen {
	s := &FilesScreen{
		ctx:        ctx,
		controller: controller,
		fileList:   components.NewFileList(),
		exportDir:  exportDir,
	}
	s.Refresh()
	return s
}

// Refresh reloads the files from the controller.
func (s *FilesScreen) Refresh() {
	s.fileList.SetItems(s.controller.State().Files)
}

func (s *FilesScreen) Init() tea.Cmd {
	return nil
}

func (s *FilesScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.fileList.Width = msg.Width - 4
		s.fileList.Height = msg.Height - 8

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.fileList.Prev()
		case "down", "j":
			s.fileList.Next()
		case "r":
			s.note = "Refreshing..."
			return s, s.fetchFiles
		case "e":
			if selected := s.fileList.Selected(); selected != nil {
				s.note = "Exporting..."
				file := *selected
				return s, func() tea.Msg {
					path, err := s.controller.ExportChapters(s.ctx, &file, integrations.ExportOptions{OutputDir: s.exportDir})
					return exportedMsg{path: path, err: err}
				}
			}
		case "enter":
			if selected := s.fileList.Selected(); selected != nil {
				return s, switchTo("details", *selected)
			}
		}

	case filesFetchedMsg:
		s.note = ""
		s.err = msg.err
		s.Refresh()

	case exportedMsg:
		s.err = msg.err
		s.note = ""
		if msg.err == nil {
			s.note = "Exported to " + msg.path
		}
	}

	return s, nil
}

func (s *FilesScreen) View() string {
	title := "Manga Files"
	if repo := s.controller.State().SelectedRepository; repo != nil {
		title = fmt.Sprintf("Manga Files in %s", repo.Name)
	}
	header := styles.TitleStyle.Render(title)

	var notes string
	if s.err != nil {
		notes = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	} else if s.note != "" {
		notes = styles.StatusLoading.Render(s.note) + "\n\n"
	}

	var body string
	if s.controller.State().SelectedRepository == nil {
		body = styles.MutedStyle.Render("Select a repository first")
	} else {
		body = s.fileList.View()
	}

	help := styles.HelpStyle.Render(
		"↑/k ↓/j: navigate • enter: edit • e: export EPUB • r: refresh • tab: switch view • q: quit",
	)

	return fmt.Sprintf("%s\n%s%s\n%s", header, notes, body, help)
}

// Commands
func (s *FilesScreen) fetchFiles() tea.Msg {
	return filesFetchedMsg{err: s.controller.FetchSelectedRepo(s.ctx)}
}
