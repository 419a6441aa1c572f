package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/data"
)

// FileList shows the manga files of a repository as cards.
type FileList struct {
	Items         []data.MangaFileInfo
	SelectedIndex int
	Width         int
	Height        int
}

func NewFileList() *FileList {
	return &FileList{
		Items:  []data.MangaFileInfo{},
		Width:  80,
		Height: 20,
	}
}

func (l *FileList) SetItems(items []data.MangaFileInfo) {
	l.Items = items
	if l.SelectedIndex >= len(items) && len(items) > 0 {
		l.SelectedIndex = len(items) - 1
	}
	if len(items) == 0 {
		l.SelectedIndex = 0
	}
}

func (l *FileList) Next() {
	if len(l.Items) == 0 {
		return
	}
	l.SelectedIndex = (l.SelectedIndex + 1) % len(l.Items)
}

func (l *FileList) Prev() {
	if len(l.Items) == 0 {
		return
	}
	l.SelectedIndex--
	if l.SelectedIndex < 0 {
		l.SelectedIndex = len(l.Items) - 1
	}
}

func (l *FileList) Selected() *data.MangaFileInfo {
	if len(l.Items) == 0 || l.SelectedIndex >= len(l.Items) {
		return nil
	}
	return &l.Items[l.SelectedIndex]
}

// visible returns the window of items that fits Height, keeping the
// selection in view. Each card takes four lines.
func (l *FileList) visible() (int, int) {
	per := l.Height / 4
	if per < 1 {
		per = 1
	}
	if len(l.Items) <= per {
		return 0, len(l.Items)
	}
	start := l.SelectedIndex - per/2
	if start < 0 {
		start = 0
	}
	end := start + per
	if end > len(l.Items) {
		end = len(l.Items)
		start = end - per
	}
	return start, end
}

func (l *FileList) View() string {
	if len(l.Items) == 0 {
		empty := styles.MutedStyle.Render("No manga files in this repository")
		return lipgloss.Place(l.Width, l.Height, lipgloss.Center, lipgloss.Center, empty)
	}

	var b strings.Builder
	start, end := l.visible()
	for i := start; i < end; i++ {
		item := l.Items[i]
		cardStyle := styles.CardStyle
		if i == l.SelectedIndex {
			cardStyle = styles.ActiveCardStyle
		}

		title, chapters := "(untitled)", 0
		if item.Manga != nil {
			if item.Manga.Title != "" {
				title = item.Manga.Title
			}
			chapters = item.Manga.Chapters.Len()
		}

		content := lipgloss.JoinVertical(
			lipgloss.Left,
			styles.SelectedStyle.Render(title),
			styles.MutedStyle.Render(fmt.Sprintf("%s • %d chapters • %s", item.Path, chapters, shortSHA(item.SHA))),
		)
		b.WriteString(cardStyle.Width(l.Width - 4).Render(content))
		b.WriteString("\n")
	}
	if start > 0 || end < len(l.Items) {
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("Showing %d-%d of %d files", start+1, end, len(l.Items))))
	}
	return b.String()
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	if sha == "" {
		return "new"
	}
	return sha
}
