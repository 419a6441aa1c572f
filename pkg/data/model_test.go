package data

import (
	"testing"

	"github.com/shohabby/manga-uploader/pkg/cubari"
)

func TestRepositoryInfoNameParts(t *testing.T) {
	repo := RepositoryInfo{Name: "sho-habby/manga", ID: 42}

	if repo.String() != "sho-habby/manga" {
		t.Errorf("Expected display name 'sho-habby/manga', got '%s'", repo.String())
	}
	if repo.Owner() != "sho-habby" {
		t.Errorf("Expected owner 'sho-habby', got '%s'", repo.Owner())
	}
	if repo.Repo() != "manga" {
		t.Errorf("Expected repo 'manga', got '%s'", repo.Repo())
	}

	bare := RepositoryInfo{Name: "manga"}
	if bare.Repo() != "manga" {
		t.Errorf("Expected repo 'manga', got '%s'", bare.Repo())
	}
}

func TestSummarize(t *testing.T) {
	m := cubari.NewManga()
	m.Title = "Series"
	n, _ := cubari.ParseChapterNumber("1")
	m.Chapters.Set(n, cubari.NewChapter("One"))

	s := Summarize(MangaFileInfo{Path: "s.json", SHA: "abc", RepositoryID: 3, Manga: m})
	if s.Title != "Series" || s.Chapters != 1 || s.RepositoryID != 3 || s.SHA != "abc" {
		t.Errorf("Unexpected summary: %+v", s)
	}

	empty := Summarize(MangaFileInfo{Path: "x.json"})
	if empty.Title != "" || empty.Chapters != 0 {
		t.Errorf("Expected empty summary, got %+v", empty)
	}
}

func TestDefaultUser(t *testing.T) {
	if DefaultUser.Login != "Please log in..." {
		t.Errorf("Unexpected default login '%s'", DefaultUser.Login)
	}
}
