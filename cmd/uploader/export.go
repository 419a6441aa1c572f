package cmd

import (
	"fmt"

	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	exportOutput    string
	exportChapters  []string
	exportMaxWidth  int
	exportMaxHeight int
	exportGrayscale bool
	exportQuality   int
)

var exportCmd = &cobra.Command{
	Use:   "export <repo> <path>",
	Short: "Export the chapters of a manga file to EPUB",
	Long:  "Build an EPUB from the chapters that list their images. Chapters hosted on a proxy are skipped.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapters, err := parseChapters(exportChapters)
		if err != nil {
			return err
		}

		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		file, err := fetchFile(cmd, s, args[0], args[1])
		if err != nil {
			return err
		}

		outputDir := exportOutput
		if outputDir == "" {
			outputDir = s.exportDir()
		}

		done := make(chan struct{})
		go printProgress(s.exporter.Progress(), done)

		fmt.Printf("📖 Exporting %s\n", file.Manga.Title)
		path, err := s.controller.ExportChapters(cmd.Context(), file, integrations.ExportOptions{
			OutputDir: outputDir,
			Chapters:  chapters,
			Images: integrations.ImageSettings{
				MaxWidth:  exportMaxWidth,
				MaxHeight: exportMaxHeight,
				Grayscale: exportGrayscale,
				Quality:   exportQuality,
			},
		})
		close(done)
		if err != nil {
			return err
		}
		fmt.Printf("✅ EPUB written to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory")
	exportCmd.Flags().StringSliceVarP(&exportChapters, "chapters", "c", nil, "chapter numbers to export, e.g. 1,2,10.5")
	exportCmd.Flags().IntVar(&exportMaxWidth, "max-width", 0, "scale pages down to this width")
	exportCmd.Flags().IntVar(&exportMaxHeight, "max-height", 0, "scale pages down to this height")
	exportCmd.Flags().BoolVar(&exportGrayscale, "grayscale", false, "convert pages to grayscale")
	exportCmd.Flags().IntVar(&exportQuality, "quality", 85, "JPEG quality for re-encoded pages")
}

func parseChapters(values []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, err := cubari.ParseChapterNumber(v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func printProgress(progress <-chan integrations.ExportProgress, done <-chan struct{}) {
	for {
		select {
		case p := <-progress:
			switch p.Status {
			case "skipped":
				fmt.Printf("  ⏭  Chapter %s has no image list\n", p.Chapter)
			case "downloading":
				if p.CurrentPage == p.TotalPages {
					fmt.Printf("  📥 Chapter %s: %d pages\n", p.Chapter, p.TotalPages)
				}
			case "error":
				fmt.Printf("  ❌ Chapter %s: %v\n", p.Chapter, p.Error)
			}
		case <-done:
			return
		}
	}
}
