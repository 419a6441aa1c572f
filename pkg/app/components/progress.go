package components

import (
	"fmt"
	"strings"

	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/integrations"
)

// ProgressTracker shows the chapter currently being exported.
type ProgressTracker struct {
	current *integrations.ExportProgress
	skipped []string
	width   int
}

func NewProgressTracker(width int) *ProgressTracker {
	return &ProgressTracker{width: width}
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
}

func (p *ProgressTracker) Update(progress integrations.ExportProgress) {
	if progress.Status == "skipped" {
		p.skipped = append(p.skipped, progress.Chapter)
		return
	}
	prog := progress
	p.current = &prog
}

func (p *ProgressTracker) Clear() {
	p.current = nil
	p.skipped = nil
}

// HasActive reports whether an export is still running.
func (p *ProgressTracker) HasActive() bool {
	return p.current != nil && p.current.Status != "complete" && p.current.Status != "error"
}

func (p *ProgressTracker) View() string {
	if p.current == nil && len(p.skipped) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Export"))
	b.WriteString("\n")

	if prog := p.current; prog != nil {
		statusText := prog.Status
		if prog.Chapter != "" {
			statusText = fmt.Sprintf("Chapter %s: %s", prog.Chapter, prog.Status)
		}
		if prog.TotalPages > 0 {
			percentage := float64(prog.CurrentPage) / float64(prog.TotalPages) * 100
			statusText = fmt.Sprintf("%s (%d/%d pages - %.0f%%)", statusText, prog.CurrentPage, prog.TotalPages, percentage)
			b.WriteString(renderProgressBar(prog.CurrentPage, prog.TotalPages, p.width-4))
			b.WriteString("\n")
		}
		b.WriteString(styles.StatusStyle(prog.Status).Render(statusText))
		b.WriteString("\n")
		if prog.Error != nil {
			b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", prog.Error)))
			b.WriteString("\n")
		}
	}

	if len(p.skipped) > 0 {
		b.WriteString(styles.MutedStyle.Render("Skipped proxy chapters: " + strings.Join(p.skipped, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func renderProgressBar(current, total, width int) string {
	if total == 0 || width <= 0 {
		return ""
	}

	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return styles.ProgressBarStyle.Render(bar)
}
