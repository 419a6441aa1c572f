package cmd

import (
	"fmt"

	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the settings and where they live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		out, err := yaml.Marshal(s.store.Settings)
		if err != nil {
			return err
		}

		fmt.Printf("# settings: %s\n", s.store.Path)
		fmt.Printf("# logs:     %s\n", logger.Path())
		fmt.Print(string(out))
		return nil
	},
}
