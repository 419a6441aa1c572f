package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/browser"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/spf13/cobra"
)

var noBrowser bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to GitHub with the device flow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := connect(cmd.Context(), s); err != nil {
			return err
		}
		state := s.controller.State()
		fmt.Printf("✅ Logged in as %s\n", state.User.Login)
		fmt.Printf("📚 %d repositories\n", len(state.Repositories))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved GitHub token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(debug)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.controller.Logout(); err != nil {
			return err
		}
		fmt.Println("👋 Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open the verification page")
}

// connect logs in, printing the device code while the flow waits for the
// user.
func connect(ctx context.Context, s *session) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case code := <-s.controller.DeviceCodes():
			fmt.Printf("🔑 Open %s and enter the code %s\n", code.VerificationURI, code.UserCode)
			fmt.Println("   (the code has been copied to your clipboard)")
			if !noBrowser {
				if err := browser.OpenURL(code.VerificationURI); err != nil {
					logger.For("cli").WithError(err).Debug("could not open browser")
				}
			}
		case <-done:
		}
	}()

	return s.controller.Connect(ctx)
}
