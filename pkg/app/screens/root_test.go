package screens

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
)

func TestFilesScreenOpensDetails(t *testing.T) {
	controller, _ := newTestController(t)
	s := NewFilesScreen(context.Background(), controller, "")

	if len(s.fileList.Items) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(s.fileList.Items))
	}

	_, cmd := s.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected enter to open the file")
	}
	msg, ok := cmd().(SwitchScreenMsg)
	if !ok || msg.Screen != "details" {
		t.Fatalf("Expected a switch to details, got %#v", msg)
	}
	if file, ok := msg.Data.(data.MangaFileInfo); !ok || file.Path != "test.json" {
		t.Errorf("Expected the selected file, got %#v", msg.Data)
	}
}

func TestFilesScreenView(t *testing.T) {
	controller, _ := newTestController(t)
	s := NewFilesScreen(context.Background(), controller, "")
	s.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := s.View()
	if !strings.Contains(view, "sho/manga") {
		t.Error("Expected the repository name in the title")
	}
	if !strings.Contains(view, "Test Manga") {
		t.Error("Expected the manga title in the list")
	}
}

func TestReposScreenFilter(t *testing.T) {
	controller, _ := newTestController(t)
	s := NewReposScreen(context.Background(), controller)

	if len(s.visible()) != 2 {
		t.Fatalf("Expected 2 repositories, got %d", len(s.visible()))
	}

	s.Update(key("/"))
	if !s.Filtering() {
		t.Fatal("Expected / to focus the filter")
	}
	s.Update(key("notes"))
	if got := s.visible(); len(got) != 1 || got[0].Name != "sho/notes" {
		t.Errorf("Expected only sho/notes, got %v", got)
	}
	s.Update(key("esc"))
	if s.Filtering() {
		t.Error("Expected esc to leave the filter")
	}
}

func TestRootScreenNavigation(t *testing.T) {
	controller, _ := newTestController(t)
	r := NewRootScreen(context.Background(), RootOptions{Controller: controller})
	r.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if r.currentView != reposView {
		t.Fatalf("Expected the repositories view first")
	}
	r.Update(key("tab"))
	if r.currentView != filesView {
		t.Errorf("Expected tab to show the files")
	}

	r.Update(SwitchScreenMsg{Screen: "details", Data: testFile(t)})
	if r.currentView != detailsView || r.details == nil {
		t.Fatal("Expected the details view")
	}

	// Typing into an input must not quit.
	r.Update(key("e"))
	_, cmd := r.Update(key("q"))
	if cmd != nil {
		if _, quit := cmd().(tea.QuitMsg); quit {
			t.Error("Expected q to be typed while editing")
		}
	}

	r.Update(key("esc"))
	_, cmd = r.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected q to quit")
	}
	if _, quit := cmd().(tea.QuitMsg); !quit {
		t.Error("Expected a quit message")
	}
}

func TestRootScreenForwardsProgress(t *testing.T) {
	controller, _ := newTestController(t)
	progress := make(chan integrations.ExportProgress, 1)
	r := NewRootScreen(context.Background(), RootOptions{Controller: controller, Progress: progress})
	r.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	r.Update(SwitchScreenMsg{Screen: "details", Data: testFile(t)})

	_, cmd := r.Update(integrations.ExportProgress{Chapter: "1", CurrentPage: 1, TotalPages: 2, Status: "downloading"})
	if cmd == nil {
		t.Error("Expected the progress listener to be re-armed")
	}
	if !r.details.progressTracker.HasActive() {
		t.Error("Expected the details screen to track the export")
	}

	progress <- integrations.ExportProgress{Status: "complete"}
	if msg, ok := r.listenForProgress().(integrations.ExportProgress); !ok || msg.Status != "complete" {
		t.Errorf("Expected the queued progress, got %#v", msg)
	}
}

func TestRootScreenHeader(t *testing.T) {
	controller, _ := newTestController(t)
	r := NewRootScreen(context.Background(), RootOptions{Controller: controller})
	r.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := r.View()
	if !strings.Contains(view, "octocat") {
		t.Error("Expected the login in the header")
	}
	if !strings.Contains(view, "sho/manga") {
		t.Error("Expected the selected repository in the header")
	}
}
