package cmd

import (
	"context"
	"os"

	"github.com/shohabby/manga-uploader/pkg/app"
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "manga-uploader",
	Short: "Edit Cubari manga files stored on GitHub",
	Long:  "Browse your GitHub repositories, edit Cubari manga JSON files and export chapters to EPUB, from a TUI or the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Launch TUI by default
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		a := app.NewApp(s.controller, s.clipboard, s.exporter.Progress(), s.exportDir())
		return a.Run(cmd.Context())
	},
}

func init() {
	// Errors come from running commands, not from their usage.
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs")

	// Add all subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
