package data

import (
	"strings"
	"time"

	"github.com/shohabby/manga-uploader/pkg/cubari"
)

// RepositoryInfo identifies a GitHub repository of the user.
type RepositoryInfo struct {
	Name string // full name, owner/repo
	ID   int64
}

func (r RepositoryInfo) String() string {
	return r.Name
}

func (r RepositoryInfo) Owner() string {
	owner, _, _ := strings.Cut(r.Name, "/")
	return owner
}

func (r RepositoryInfo) Repo() string {
	_, repo, found := strings.Cut(r.Name, "/")
	if !found {
		return r.Name
	}
	return repo
}

type UserInfo struct {
	ID        int64
	Login     string
	Email     string
	AvatarURL string
}

// DefaultUser is shown while nobody is logged in.
var DefaultUser = UserInfo{Login: "Please log in..."}

// MangaFileInfo is a Cubari file found in a repository.
type MangaFileInfo struct {
	Path         string
	SHA          string
	RepositoryID int64
	Manga        *cubari.Manga
}

// MangaFileSummary is what the local index keeps about a manga file.
type MangaFileSummary struct {
	RepositoryID int64
	Path         string
	SHA          string
	Title        string
	Chapters     int
	IndexedAt    time.Time
}

func Summarize(f MangaFileInfo) MangaFileSummary {
	s := MangaFileSummary{
		RepositoryID: f.RepositoryID,
		Path:         f.Path,
		SHA:          f.SHA,
	}
	if f.Manga != nil {
		s.Title = f.Manga.Title
		s.Chapters = f.Manga.Chapters.Len()
	}
	return s
}
