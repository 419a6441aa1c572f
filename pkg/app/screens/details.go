package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shohabby/manga-uploader/pkg/app/components"
	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/shohabby/manga-uploader/pkg/services"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldArtist
	fieldAuthor
	fieldCover
	paneChapters
	paneGroups
	focusCount
)

var fieldLabels = []string{"Title", "Description", "Artist", "Author", "Cover"}

// DetailsScreen edits one manga file.
type DetailsScreen struct {
	ctx        context.Context
	controller *services.UploaderController
	clipboard  services.Clipboard
	exportDir  string

	file     data.MangaFileInfo
	chapters []cubari.NumberedChapter
	inputs   []textinput.Model
	focus    int

	selectedChapter int
	selectedGroup   int

	progressTracker *components.ProgressTracker
	status          statusMsg
	width           int
	height          int
}

func NewDetailsScreen(ctx context.Context, controller *services.UploaderController, clipboard services.Clipboard, file data.MangaFileInfo, exportDir string) *DetailsScreen {
	s := &DetailsScreen{
		ctx:             ctx,
		controller:      controller,
		clipboard:       clipboard,
		exportDir:       exportDir,
		file:            file,
		focus:           paneChapters,
		progressTracker: components.NewProgressTracker(80),
	}
	// Edits stay local until saved.
	s.file.Manga = copyManga(file.Manga)
	s.chapters = s.file.Manga.Chapters.All()

	s.inputs = make([]textinput.Model, len(fieldLabels))
	for i := range s.inputs {
		ti := textinput.New()
		ti.Placeholder = fieldLabels[i]
		ti.CharLimit = 2000
		ti.Width = 60
		s.inputs[i] = ti
	}
	s.resetInputs()
	return s
}

func copyManga(m *cubari.Manga) *cubari.Manga {
	if m == nil {
		return cubari.NewManga()
	}
	raw, err := cubari.Marshal(m)
	if err != nil {
		logger.For("details").WithError(err).Warn("could not copy manga")
		return m
	}
	out, err := cubari.Unmarshal(raw)
	if err != nil {
		logger.For("details").WithError(err).Warn("could not copy manga")
		return m
	}
	return out
}

func (s *DetailsScreen) resetInputs() {
	m := s.file.Manga
	s.inputs[fieldTitle].SetValue(m.Title)
	s.inputs[fieldDescription].SetValue(m.Description)
	s.inputs[fieldArtist].SetValue(m.Artist)
	s.inputs[fieldAuthor].SetValue(m.Author)
	s.inputs[fieldCover].SetValue(m.CoverString())
}

// Editing reports whether keys go to a text input.
func (s *DetailsScreen) Editing() bool {
	return s.focus < paneChapters
}

// File is the manga being edited.
func (s *DetailsScreen) File() data.MangaFileInfo {
	return s.file
}

func (s *DetailsScreen) Init() tea.Cmd {
	return nil
}

func (s *DetailsScreen) setFocus(focus int) tea.Cmd {
	if s.focus < paneChapters {
		s.inputs[s.focus].Blur()
	}
	s.focus = (focus + focusCount) % focusCount
	if s.focus < paneChapters {
		s.inputs[s.focus].Focus()
		return textinput.Blink
	}
	return nil
}

func (s *DetailsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.progressTracker.SetWidth(msg.Width - 4)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			return s, s.setFocus(s.focus + 1)
		case "shift+tab":
			return s, s.setFocus(s.focus - 1)
		case "ctrl+s":
			return s, s.save()
		case "ctrl+e":
			return s, s.export()
		}

		if s.Editing() {
			switch msg.String() {
			case "esc":
				return s, s.setFocus(paneChapters)
			case "enter":
				return s, s.setFocus(s.focus + 1)
			}
			var cmd tea.Cmd
			s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
			return s, cmd
		}

		switch msg.String() {
		case "up", "k":
			s.move(-1)
		case "down", "j":
			s.move(1)
		case "y":
			return s, s.copyEntry()
		case "e":
			return s, s.setFocus(fieldTitle)
		case "esc", "backspace":
			return s, switchTo("files", nil)
		}

	case fileSavedMsg:
		if msg.err != nil {
			s.status = statusMsg{text: fmt.Sprintf("Error: %s", msg.err), status: "error"}
			return s, nil
		}
		s.file.SHA = msg.file.SHA
		s.file.RepositoryID = msg.file.RepositoryID
		s.status = statusMsg{text: "Saved " + s.file.Path, status: "saved"}

	case exportedMsg:
		if msg.err != nil {
			s.status = statusMsg{text: fmt.Sprintf("Error: %s", msg.err), status: "error"}
			return s, nil
		}
		s.status = statusMsg{text: "Exported to " + msg.path, status: "complete"}

	case statusMsg:
		s.status = msg

	case integrations.ExportProgress:
		s.progressTracker.Update(msg)
	}

	return s, nil
}

func (s *DetailsScreen) move(delta int) {
	switch s.focus {
	case paneChapters:
		if n := len(s.chapters); n > 0 {
			s.selectedChapter = (s.selectedChapter + delta + n) % n
			s.selectedGroup = 0
		}
	case paneGroups:
		if n := len(s.groups()); n > 0 {
			s.selectedGroup = (s.selectedGroup + delta + n) % n
		}
	}
}

func (s *DetailsScreen) currentChapter() *cubari.NumberedChapter {
	if s.selectedChapter < len(s.chapters) {
		return &s.chapters[s.selectedChapter]
	}
	return nil
}

func (s *DetailsScreen) groups() []cubari.GroupEntry {
	if ch := s.currentChapter(); ch != nil && ch.Chapter != nil {
		return ch.Chapter.Groups.All()
	}
	return nil
}

// apply copies the text inputs into the manga.
func (s *DetailsScreen) apply() error {
	m := s.file.Manga
	m.Title = s.inputs[fieldTitle].Value()
	m.Description = s.inputs[fieldDescription].Value()
	m.Artist = s.inputs[fieldArtist].Value()
	m.Author = s.inputs[fieldAuthor].Value()
	return m.SetCover(strings.TrimSpace(s.inputs[fieldCover].Value()))
}

// Commands
func (s *DetailsScreen) save() tea.Cmd {
	if err := s.apply(); err != nil {
		s.status = statusMsg{text: fmt.Sprintf("Error: %s", err), status: "error"}
		return nil
	}
	s.status = statusMsg{text: "Saving...", status: "saving"}
	file := s.file
	return func() tea.Msg {
		err := s.controller.SaveFile(s.ctx, &file, "")
		return fileSavedMsg{file: file, err: err}
	}
}

func (s *DetailsScreen) export() tea.Cmd {
	s.progressTracker.Clear()
	s.status = statusMsg{text: "Exporting...", status: "loading"}
	file := s.file
	return func() tea.Msg {
		path, err := s.controller.ExportChapters(s.ctx, &file, integrations.ExportOptions{OutputDir: s.exportDir})
		return exportedMsg{path: path, err: err}
	}
}

func (s *DetailsScreen) copyEntry() tea.Cmd {
	groups := s.groups()
	if s.focus != paneGroups || s.selectedGroup >= len(groups) {
		return func() tea.Msg {
			return statusMsg{text: "Select a group to copy its entry", status: ""}
		}
	}
	proxy, ok := groups[s.selectedGroup].Entry.(*cubari.ProxyEntry)
	if !ok {
		return func() tea.Msg {
			return statusMsg{text: "Image lists have no proxy URL", status: ""}
		}
	}
	uri := proxy.URIString()
	return func() tea.Msg {
		if s.clipboard == nil {
			return statusMsg{text: uri, status: ""}
		}
		if err := s.clipboard.CopyTextToClipboard(uri); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %s", err), status: "error"}
		}
		return statusMsg{text: "Copied " + uri, status: "copied"}
	}
}

func (s *DetailsScreen) View() string {
	header := styles.TitleStyle.Render(s.file.Path)

	var fields strings.Builder
	for i, input := range s.inputs {
		style := styles.InputStyle
		if s.focus == i {
			style = styles.FocusedInputStyle
		}
		row := lipgloss.JoinHorizontal(lipgloss.Center,
			styles.LabelStyle.Render(fieldLabels[i]),
			style.Render(input.View()),
		)
		fields.WriteString(row)
		fields.WriteString("\n")
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top, s.renderChapters(), "  ", s.renderGroups())

	var status string
	if s.status.text != "" {
		status = styles.StatusStyle(s.status.status).Render(s.status.text) + "\n"
	}

	help := styles.HelpStyle.Render(
		"tab: next field • e: edit fields • ↑/↓: navigate • y: copy proxy URL • ctrl+s: save • ctrl+e: export EPUB • esc: back",
	)

	return fmt.Sprintf("%s\n%s\n%s\n%s%s\n%s", header, fields.String(), panes, status, s.progressTracker.View(), help)
}

func (s *DetailsScreen) renderChapters() string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Chapters (%d)", len(s.chapters))))
	b.WriteString("\n")

	if len(s.chapters) == 0 {
		b.WriteString(styles.MutedStyle.Render("No chapters"))
	}
	for i, ch := range s.chapters {
		label := "Ch. " + cubari.FormatNumber(ch.Number)
		if ch.Chapter != nil {
			if v := ch.Chapter.VolumeString(); v != "" {
				label = fmt.Sprintf("Vol. %s %s", v, label)
			}
			if ch.Chapter.Title != "" {
				label += ": " + ch.Chapter.Title
			}
		}
		if i == s.selectedChapter {
			b.WriteString(styles.SelectedStyle.Render("▸ " + label))
		} else {
			b.WriteString(styles.TextStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}

	style := styles.CardStyle
	if s.focus == paneChapters {
		style = styles.ActiveCardStyle
	}
	return style.Render(b.String())
}

func (s *DetailsScreen) renderGroups() string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Groups"))
	b.WriteString("\n")

	groups := s.groups()
	if len(groups) == 0 {
		b.WriteString(styles.MutedStyle.Render("No groups"))
	}
	for i, g := range groups {
		label := g.Groups.String()
		switch entry := g.Entry.(type) {
		case *cubari.ProxyEntry:
			label += "  " + styles.MutedStyle.Render(entry.Type.String())
		case *cubari.ListEntry:
			label += "  " + styles.MutedStyle.Render(fmt.Sprintf("%d pages", len(entry.Images)))
		}
		if i == s.selectedGroup && s.focus == paneGroups {
			b.WriteString(styles.SelectedStyle.Render("▸ ") + label)
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}

	style := styles.CardStyle
	if s.focus == paneGroups {
		style = styles.ActiveCardStyle
	}
	return style.Render(b.String())
}
