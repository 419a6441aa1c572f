package screens

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/data"
)

// SwitchScreenMsg asks the root screen to show another screen.
type SwitchScreenMsg struct {
	Screen string
	Data   interface{}
}

func switchTo(screen string, data interface{}) tea.Cmd {
	return func() tea.Msg {
		return SwitchScreenMsg{Screen: screen, Data: data}
	}
}

type deviceCodeMsg auth.DeviceCode

type connectedMsg struct {
	err error
}

type reposFetchedMsg struct {
	err error
}

type filesFetchedMsg struct {
	err error
}

type fileSavedMsg struct {
	file data.MangaFileInfo
	err  error
}

type exportedMsg struct {
	path string
	err  error
}

type statusMsg struct {
	text   string
	status string
}
