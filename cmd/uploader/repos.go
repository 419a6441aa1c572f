package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/spf13/cobra"
)

var offline bool

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List your GitHub repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		var repos []data.RepositoryInfo
		if offline {
			repos, err = s.controller.OfflineRepositories()
			if err != nil {
				return err
			}
		} else {
			if err := connect(cmd.Context(), s); err != nil {
				return err
			}
			repos = s.controller.State().Repositories
		}

		if len(repos) == 0 {
			fmt.Println("📚 No repositories.")
			return nil
		}

		columns := []table.Column{
			{Title: "Repository", Width: 50},
			{Title: "ID", Width: 12},
		}
		rows := []table.Row{}
		for _, r := range repos {
			rows = append(rows, table.Row{truncateString(r.Name, 48), fmt.Sprintf("%d", r.ID)})
		}

		fmt.Printf("\n📚 Repositories (%d)\n\n", len(repos))
		fmt.Println(renderTable(columns, rows))
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files [repo]",
	Short: "List the manga files of a repository",
	Long:  "List the Cubari files of a repository, or of the last opened one when no repository is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		name := s.store.Settings.GitHub.RepoName
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return errors.New("no repository given and none opened before")
		}

		var files []data.MangaFileSummary
		if offline {
			files, err = s.controller.OfflineFiles(name)
			if err != nil {
				return err
			}
		} else {
			if err := openRepository(cmd, s, name); err != nil {
				return err
			}
			for _, f := range s.controller.State().Files {
				files = append(files, data.Summarize(f))
			}
		}

		if len(files) == 0 {
			fmt.Printf("📚 No manga files in %s.\n", name)
			return nil
		}

		columns := []table.Column{
			{Title: "Path", Width: 40},
			{Title: "Title", Width: 30},
			{Title: "Chapters", Width: 10},
			{Title: "SHA", Width: 9},
		}
		rows := []table.Row{}
		for _, f := range files {
			rows = append(rows, table.Row{
				truncateString(f.Path, 38),
				truncateString(f.Title, 28),
				fmt.Sprintf("%d", f.Chapters),
				truncateString(f.SHA, 7),
			})
		}

		fmt.Printf("\n📚 %s (%d files)\n\n", name, len(files))
		fmt.Println(renderTable(columns, rows))
		return nil
	},
}

func init() {
	reposCmd.Flags().BoolVar(&offline, "offline", false, "read from the local index")
	filesCmd.Flags().BoolVar(&offline, "offline", false, "read from the local index")
}

// openRepository logs in and loads the files of the named repository.
func openRepository(cmd *cobra.Command, s *session, name string) error {
	if err := connect(cmd.Context(), s); err != nil {
		return err
	}
	if repo := s.controller.State().SelectedRepository; repo != nil && repo.Name == name && len(s.controller.State().Files) > 0 {
		return nil
	}
	if err := s.controller.SelectRepository(name); err != nil {
		return err
	}
	return s.controller.FetchSelectedRepo(cmd.Context())
}

func renderTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)),
	)

	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("229")).
		Bold(false)
	t.SetStyles(st)
	return t.View()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
