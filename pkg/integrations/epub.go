package integrations

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/shopspring/decimal"
)

// Fetcher downloads the bytes behind an image URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// ExportProgress is sent while a book is being built.
type ExportProgress struct {
	Chapter     string
	CurrentPage int
	TotalPages  int
	Status      string // "downloading", "writing", "complete", "skipped"
	Error       error
}

type ExportOptions struct {
	OutputDir string
	// Chapters limits the export; empty means every chapter.
	Chapters []decimal.Decimal
	Images   ImageSettings
}

type EPubExporter struct {
	fetcher  Fetcher
	progress chan ExportProgress
}

func NewEPubExporter(fetcher Fetcher) *EPubExporter {
	return &EPubExporter{fetcher: fetcher, progress: make(chan ExportProgress, 100)}
}

func (x *EPubExporter) Progress() <-chan ExportProgress {
	return x.progress
}

// Export writes one EPUB with every chapter that lists its images directly.
// Proxy chapters have no image list and are left out.
func (x *EPubExporter) Export(ctx context.Context, manga *cubari.Manga, opts ExportOptions) (string, error) {
	if manga == nil {
		return "", errors.New("manga cannot be nil")
	}
	log := logger.For("epub").WithField("title", manga.Title)

	title := manga.Title
	if title == "" {
		title = "Untitled"
	}
	e, err := epub.NewEpub(title)
	if err != nil {
		return "", errors.Wrap(err, "create epub")
	}
	e.SetLang("en")
	if author := bookAuthor(manga); author != "" {
		e.SetAuthor(author)
	}
	if manga.Description != "" {
		e.SetDescription(manga.Description)
	}

	images := NewImageProcessor(opts.Images)

	if manga.Cover != nil {
		if err := x.addCover(ctx, e, images, manga.Cover.String()); err != nil {
			log.WithError(err).Warn("skipping cover")
		}
	}


	sections := 0
	for _, ch := range manga.Chapters.All() {
		number := cubari.FormatNumber(ch.Number)
		if !selected(opts.Chapters, ch.Number) {
			continue
		}

		list := firstListEntry(ch.Chapter)
		if list == nil || len(list.Images) == 0 {
			x.sendProgress(ExportProgress{Chapter: number, Status: "skipped"})
			log.WithField("chapter", number).Debug("no image list, skipping chapter")
			continue
		}

		if err := x.addChapter(ctx, e, images, number, ch.Chapter, list); err != nil {
			x.sendProgress(ExportProgress{Chapter: number, Status: "error", Error: err})
			return "", errors.Wrapf(err, "chapter %s", number)
		}
		sections++
	}
	if sections == 0 {
		return "", errors.New("no chapters with image lists to export")
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output directory")
	}

	x.sendProgress(ExportProgress{Status: "writing"})
	outputPath := filepath.Join(outputDir, sanitizeFilename(title)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", errors.Wrap(err, "write epub")
	}

	x.sendProgress(ExportProgress{Status: "complete"})
	log.WithFields(map[string]any{"path": outputPath, "chapters": sections}).Info("exported epub")
	return outputPath, nil
}

func (x *EPubExporter) addCover(ctx context.Context, e *epub.Epub, images *ImageProcessor, url string) error {
	page, err := x.fetchPage(ctx, images, url)
	if err != nil {
		return err
	}
	path, err := e.AddImage(page.DataURL(), "cover"+extension(page.MediaType))
	if err != nil {
		return errors.Wrap(err, "add cover image")
	}
	body := fmt.Sprintf(`<div class="cover"><img src="%s" alt="Cover" style="width:100%%;height:auto;"/></div>`, path)
	_, err = e.AddSection(body, "Cover", "cover.xhtml", "")
	return errors.Wrap(err, "add cover section")
}

func (x *EPubExporter) addChapter(ctx context.Context, e *epub.Epub, images *ImageProcessor, number string, ch *cubari.Chapter, list *cubari.ListEntry) error {
	title := chapterTitle(number, ch)

	var body strings.Builder
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(title))

	total := len(list.Images)
	for i, u := range list.Images {
		x.sendProgress(ExportProgress{Chapter: number, CurrentPage: i + 1, TotalPages: total, Status: "downloading"})

		page, err := x.fetchPage(ctx, images, u.String())
		if err != nil {
			return errors.Wrapf(err, "page %d", i+1)
		}
		filename := fmt.Sprintf("ch%s-%03d%s", strings.ReplaceAll(number, ".", "_"), i+1, extension(page.MediaType))
		path, err := e.AddImage(page.DataURL(), filename)
		if err != nil {
			return errors.Wrapf(err, "add page %d", i+1)
		}
		fmt.Fprintf(&body, `<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>`+"\n", path, i+1)
	}

	_, err := e.AddSection(body.String(), title, "", "")
	return errors.Wrap(err, "add section")
}

func (x *EPubExporter) fetchPage(ctx context.Context, images *ImageProcessor, url string) (Page, error) {
	raw, _, err := x.fetcher.Fetch(ctx, url)
	if err != nil {
		return Page{}, err
	}
	page, err := images.Prepare(raw)
	if err != nil {
		return Page{}, errors.Wrap(err, url)
	}
	return page, nil
}

// sendProgress drops the update when nobody keeps up with the channel.
func (x *EPubExporter) sendProgress(p ExportProgress) {
	select {
	case x.progress <- p:
	default:
	}
}

// selected reports whether number is in chapters, an empty list selects all.
func selected(chapters []decimal.Decimal, number decimal.Decimal) bool {
	if len(chapters) == 0 {
		return true
	}
	for _, c := range chapters {
		if c.Equal(number) {
			return true
		}
	}
	return false
}

func firstListEntry(ch *cubari.Chapter) *cubari.ListEntry {
	for _, g := range ch.Groups.All() {
		if list, ok := g.Entry.(*cubari.ListEntry); ok {
			return list
		}
	}
	return nil
}

func bookAuthor(m *cubari.Manga) string {
	switch {
	case m.Author != "" && m.Artist != "" && m.Author != m.Artist:
		return m.Author + ", " + m.Artist
	case m.Author != "":
		return m.Author
	default:
		return m.Artist
	}
}

func chapterTitle(number string, ch *cubari.Chapter) string {
	title := "Chapter " + number
	if v := ch.VolumeString(); ch.Volume != nil && !ch.Volume.IsZero() {
		title = fmt.Sprintf("Vol. %s, %s", v, title)
	}
	if ch.Title != "" {
		title = fmt.Sprintf("%s: %s", title, ch.Title)
	}
	return title
}

func extension(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	if result == "" {
		return "manga"
	}
	return result
}
