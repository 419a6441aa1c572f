package cmd

import (
	"fmt"
	"strings"

	"github.com/shohabby/manga-uploader/pkg/app/styles"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/spf13/cobra"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:   "show <repo> <path>",
	Short: "Show a manga file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		file, err := fetchFile(cmd, s, args[0], args[1])
		if err != nil {
			return err
		}

		if showRaw {
			raw, err := cubari.Marshal(file.Manga)
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		}
		fmt.Print(describe(file))
		return nil
	},
}

var formatCmd = &cobra.Command{
	Use:   "format <in> [out]",
	Short: "Decode and re-encode a local Cubari file",
	Long:  "Read a Cubari JSON file and write it back in canonical form. Without out, the input file is rewritten.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		out := args[0]
		if len(args) == 2 {
			out = args[1]
		}
		if err := s.controller.RoundTrip(args[0], out); err != nil {
			return err
		}
		fmt.Printf("✅ Wrote %s\n", out)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "print the canonical JSON")
}

func fetchFile(cmd *cobra.Command, s *session, repo, path string) (*data.MangaFileInfo, error) {
	if err := connect(cmd.Context(), s); err != nil {
		return nil, err
	}
	if err := s.controller.SelectRepository(repo); err != nil {
		return nil, err
	}
	return s.controller.GetFile(cmd.Context(), path)
}

func describe(file *data.MangaFileInfo) string {
	m := file.Manga
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("📖 " + m.Title))
	b.WriteString("\n")
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(styles.TextStyle.Render(value))
		b.WriteString("\n")
	}
	field("Path", file.Path)
	field("SHA", file.SHA)
	field("Author", m.Author)
	field("Artist", m.Artist)
	field("Cover", m.CoverString())
	field("Description", m.Description)

	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Chapters (%d)", m.Chapters.Len())))
	b.WriteString("\n")
	for _, ch := range m.Chapters.All() {
		label := "Ch. " + cubari.FormatNumber(ch.Number)
		if v := ch.Chapter.VolumeString(); v != "" {
			label = fmt.Sprintf("Vol. %s %s", v, label)
		}
		if ch.Chapter.Title != "" {
			label += ": " + ch.Chapter.Title
		}
		b.WriteString("  " + label + "\n")

		for _, g := range ch.Chapter.Groups.All() {
			var entry string
			switch e := g.Entry.(type) {
			case *cubari.ProxyEntry:
				entry = e.URIString()
			case *cubari.ListEntry:
				entry = fmt.Sprintf("%d pages", len(e.Images))
			}
			b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("    %s  %s", g.Groups, entry)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
