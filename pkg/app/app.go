package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shohabby/manga-uploader/pkg/app/screens"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/shohabby/manga-uploader/pkg/services"
)

type App struct {
	controller *services.UploaderController
	clipboard  services.Clipboard
	progress   <-chan integrations.ExportProgress
	exportDir  string
}

func NewApp(controller *services.UploaderController, clipboard services.Clipboard, progress <-chan integrations.ExportProgress, exportDir string) *App {
	return &App{
		controller: controller,
		clipboard:  clipboard,
		progress:   progress,
		exportDir:  exportDir,
	}
}

// Run blocks until the user quits, then stores the window size.
func (a *App) Run(ctx context.Context) error {
	model := screens.NewRootScreen(ctx, screens.RootOptions{
		Controller: a.controller,
		Clipboard:  a.clipboard,
		Progress:   a.progress,
		ExportDir:  a.exportDir,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()

	a.rememberSize(model.Size())
	if saveErr := a.controller.SaveSettings(); saveErr != nil {
		logger.For("app").WithError(saveErr).Warn("could not save settings")
	}
	return err
}

func (a *App) rememberSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	settings := a.controller.Settings()
	settings.Window.Width = width
	settings.Window.Height = height
}
