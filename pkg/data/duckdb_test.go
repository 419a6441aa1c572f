package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "index.db")
	repo, err := OpenRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func TestInitDuckDBCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "index.db")

	db, err := InitDuckDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var tableCount int
	err = db.QueryRow(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name IN ('repositories', 'manga_files')`).Scan(&tableCount)
	require.NoError(t, err)
	assert.Equal(t, 2, tableCount)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "DB file was not created")
}

func TestSaveAndListRepositories(t *testing.T) {
	repo := setupTestDB(t)

	repos, err := repo.ListRepositories()
	require.NoError(t, err)
	assert.Empty(t, repos)

	require.NoError(t, repo.SaveRepositories([]RepositoryInfo{
		{Name: "sho/zeta", ID: 2},
		{Name: "sho/alpha", ID: 1},
	}))

	repos, err = repo.ListRepositories()
	require.NoError(t, err)
	assert.Equal(t, []RepositoryInfo{{Name: "sho/alpha", ID: 1}, {Name: "sho/zeta", ID: 2}}, repos)

	// Saving again replaces the set.
	require.NoError(t, repo.SaveRepositories([]RepositoryInfo{{Name: "sho/beta", ID: 3}}))
	repos, err = repo.ListRepositories()
	require.NoError(t, err)
	assert.Equal(t, []RepositoryInfo{{Name: "sho/beta", ID: 3}}, repos)

	found, err := repo.FindRepository("sho/beta")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(3), found.ID)

	missing, err := repo.FindRepository("sho/alpha")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testManga(title string, chapters int) *cubari.Manga {
	m := cubari.NewManga()
	m.Title = title
	for i := 1; i <= chapters; i++ {
		n, _ := cubari.ParseChapterNumber(string(rune('0' + i)))
		m.Chapters.Set(n, cubari.NewChapter(""))
	}
	return m
}

func TestReplaceAndListMangaFiles(t *testing.T) {
	repo := setupTestDB(t)

	files := []MangaFileInfo{
		{Path: "series/b.json", SHA: "bbb", RepositoryID: 7, Manga: testManga("B", 2)},
		{Path: "a.json", SHA: "aaa", RepositoryID: 7, Manga: testManga("A", 3)},
	}
	require.NoError(t, repo.ReplaceMangaFiles(7, files))
	require.NoError(t, repo.ReplaceMangaFiles(8, []MangaFileInfo{{Path: "other.json", SHA: "o", RepositoryID: 8}}))

	listed, err := repo.ListMangaFiles(7)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "a.json", listed[0].Path)
	assert.Equal(t, "A", listed[0].Title)
	assert.Equal(t, 3, listed[0].Chapters)
	assert.Equal(t, "bbb", listed[1].SHA)
	assert.Equal(t, 2024, listed[1].IndexedAt.Year())

	// Replacing drops files that disappeared.
	require.NoError(t, repo.ReplaceMangaFiles(7, files[:1]))
	listed, err = repo.ListMangaFiles(7)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "series/b.json", listed[0].Path)

	other, err := repo.ListMangaFiles(8)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Empty(t, other[0].Title)
}

func TestUpdateMangaFile(t *testing.T) {
	repo := setupTestDB(t)

	f := MangaFileInfo{Path: "a.json", SHA: "old", RepositoryID: 1, Manga: testManga("A", 1)}
	require.NoError(t, repo.UpdateMangaFile(f))

	f.SHA = "new"
	f.Manga.Title = "A2"
	require.NoError(t, repo.UpdateMangaFile(f))

	listed, err := repo.ListMangaFiles(1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "new", listed[0].SHA)
	assert.Equal(t, "A2", listed[0].Title)

	require.NoError(t, repo.DeleteRepositoryFiles(1))
	listed, err = repo.ListMangaFiles(1)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
