package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/config"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `{
  "title": "Test Manga",
  "description": "",
  "artist": "",
  "author": "",
  "cover": "",
  "chapters": {
    "1": {
      "title": "Start",
      "volume": "",
      "groups": {
        "Team": "/proxy/api/imgchest/chapter/abc/"
      },
      "last_updated": "1700000000"
    }
  }
}`

var (
	mangaRepo = data.RepositoryInfo{Name: "sho/manga", ID: 1}
	otherRepo = data.RepositoryInfo{Name: "sho/other", ID: 2}
)

type fixture struct {
	controller *UploaderController
	source     *mockSource
	vault      *memoryVault
	flow       *fakeFlow
	index      *mockIndex
	clipboard  *fakeClipboard
	exporter   *fakeExporter
	store      *config.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manga, err := cubari.Unmarshal([]byte(sampleJSON))
	require.NoError(t, err)

	f := &fixture{
		source: &mockSource{
			listRepositoriesFunc: func() ([]data.RepositoryInfo, error) {
				return []data.RepositoryInfo{mangaRepo, otherRepo}, nil
			},
			fetchContentsFunc: func(repo data.RepositoryInfo) ([]data.MangaFileInfo, error) {
				return []data.MangaFileInfo{{Path: "test.json", SHA: "sha1", RepositoryID: repo.ID, Manga: manga}}, nil
			},
		},
		vault:     &memoryVault{},
		flow:      &fakeFlow{token: "fresh"},
		index:     newMockIndex(),
		clipboard: &fakeClipboard{},
		exporter:  &fakeExporter{},
		store:     &config.Store{Path: filepath.Join(t.TempDir(), "settings.yaml"), Settings: config.Defaults()},
	}
	authenticator := auth.NewAuthenticator(f.vault, f.flow, f.source)
	f.controller = NewUploaderController(ControllerConfig{
		Source:    f.source,
		Auth:      authenticator,
		Index:     f.index,
		Settings:  f.store,
		Clipboard: f.clipboard,
		Exporter:  f.exporter,
	})
	return f
}

func TestNewUploaderController(t *testing.T) {
	f := newFixture(t)
	state := f.controller.State()
	assert.Equal(t, data.DefaultUser, state.User)
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Nil(t, state.SelectedRepository)
}

func TestConnectWithDeviceFlow(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.controller.Connect(context.Background()))

	state := f.controller.State()
	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Equal(t, "octocat", state.User.Login)
	assert.Empty(t, state.DeviceFlowCode)
	assert.Equal(t, []data.RepositoryInfo{mangaRepo, otherRepo}, state.Repositories)
	assert.Nil(t, state.SelectedRepository)

	assert.Equal(t, []string{"ABCD-1234"}, f.clipboard.copied)
	select {
	case code := <-f.controller.DeviceCodes():
		assert.Equal(t, "ABCD-1234", code.UserCode)
	default:
		t.Fatal("device code was not published")
	}

	assert.Equal(t, "fresh", f.source.Token())
	assert.Equal(t, "fresh", f.vault.token)
	assert.Equal(t, []data.RepositoryInfo{mangaRepo, otherRepo}, f.index.repos)
	require.NotNil(t, f.store.Settings.GitHub.UserID)
	assert.Equal(t, int64(1), *f.store.Settings.GitHub.UserID)
}

func TestConnectReopensSavedRepository(t *testing.T) {
	f := newFixture(t)
	f.vault.token = "saved"
	f.store.Settings.RememberRepository("sho/other", 2)

	require.NoError(t, f.controller.Connect(context.Background()))

	state := f.controller.State()
	require.NotNil(t, state.SelectedRepository)
	assert.Equal(t, otherRepo, *state.SelectedRepository)
	require.Len(t, state.Files, 1)
	assert.Equal(t, int64(2), state.Files[0].RepositoryID)
	assert.Len(t, f.index.files[2], 1)
	assert.Empty(t, f.clipboard.copied, "saved token needs no device code")
}

func TestConnectForgetsVanishedRepository(t *testing.T) {
	f := newFixture(t)
	f.store.Settings.RememberRepository("sho/deleted", 9)

	require.NoError(t, f.controller.Connect(context.Background()))
	assert.Nil(t, f.controller.State().SelectedRepository)
	assert.Empty(t, f.store.Settings.GitHub.RepoName)
}

func TestConnectTogglesLogout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))
	require.True(t, f.controller.State().IsAuthenticated)

	require.NoError(t, f.controller.Connect(context.Background()))
	state := f.controller.State()
	assert.False(t, state.IsAuthenticated)
	assert.Equal(t, data.DefaultUser, state.User)
	assert.Empty(t, state.Repositories)
	assert.Empty(t, f.source.Token())
	assert.Empty(t, f.vault.token)
}

func TestConnectFailure(t *testing.T) {
	f := newFixture(t)
	f.flow.err = errors.New("access_denied")

	err := f.controller.Connect(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	state := f.controller.State()
	assert.False(t, state.IsAuthenticated)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.DeviceFlowCode)
}

func TestCommandsRequireLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.controller.FetchRepositories(ctx), auth.ErrNotAuthenticated)
	assert.ErrorIs(t, f.controller.FetchSelectedRepo(ctx), auth.ErrNotAuthenticated)
	assert.ErrorIs(t, f.controller.SaveFile(ctx, &data.MangaFileInfo{}, ""), auth.ErrNotAuthenticated)
}

func TestSelectRepository(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))

	err := f.controller.SelectRepository("sho/missing")
	assert.ErrorIs(t, err, ErrUnknownRepository)

	assert.ErrorIs(t, f.controller.FetchSelectedRepo(context.Background()), ErrNoRepositorySelected)

	require.NoError(t, f.controller.SelectRepository("sho/manga"))
	assert.Equal(t, "sho/manga", f.store.Settings.GitHub.RepoName)

	require.NoError(t, f.controller.FetchSelectedRepo(context.Background()))
	assert.Len(t, f.controller.State().Files, 1)
}

func TestFetchSelectedRepoError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))
	require.NoError(t, f.controller.SelectRepository("sho/manga"))

	f.source.fetchContentsFunc = func(repo data.RepositoryInfo) ([]data.MangaFileInfo, error) {
		return nil, errors.New("rate limited")
	}
	assert.Error(t, f.controller.FetchSelectedRepo(context.Background()))
	assert.False(t, f.controller.State().IsLoading)
}

func TestGetFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.controller.GetFile(ctx, "test.json")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	require.NoError(t, f.controller.Connect(ctx))
	_, err = f.controller.GetFile(ctx, "test.json")
	assert.ErrorIs(t, err, ErrNoRepositorySelected)

	f.source.getMangaFileFunc = func(repo data.RepositoryInfo, path string) (*data.MangaFileInfo, error) {
		assert.Equal(t, mangaRepo, repo)
		return &data.MangaFileInfo{Path: path, SHA: "sha9", RepositoryID: repo.ID}, nil
	}
	require.NoError(t, f.controller.SelectRepository("sho/manga"))
	file, err := f.controller.GetFile(ctx, "test.json")
	require.NoError(t, err)
	assert.Equal(t, "sha9", file.SHA)
}

func TestSaveFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))
	require.NoError(t, f.controller.SelectRepository("sho/manga"))
	require.NoError(t, f.controller.FetchSelectedRepo(context.Background()))

	var gotMessage string
	f.source.saveMangaFileFunc = func(repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error) {
		assert.Equal(t, mangaRepo, repo)
		assert.Equal(t, "sha1", file.SHA)
		gotMessage = message
		return "sha2", nil
	}

	file := f.controller.State().Files[0]
	file.Manga.Title = "Renamed"
	require.NoError(t, f.controller.SaveFile(context.Background(), &file, "Rename"))

	assert.Equal(t, "Rename", gotMessage)
	assert.Equal(t, "sha2", file.SHA)
	assert.Equal(t, "sha2", f.controller.State().Files[0].SHA)
	require.Len(t, f.index.saved, 1)
	assert.Equal(t, "sha2", f.index.saved[0].SHA)
}

func TestSaveNewFileAppends(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))
	require.NoError(t, f.controller.SelectRepository("sho/manga"))

	file := &data.MangaFileInfo{Path: "new.json", Manga: cubari.NewManga()}
	require.NoError(t, f.controller.SaveFile(context.Background(), file, ""))

	files := f.controller.State().Files
	require.Len(t, files, 1)
	assert.Equal(t, "new.json", files[0].Path)
	assert.Equal(t, int64(1), files[0].RepositoryID)
}

func TestExportChapters(t *testing.T) {
	f := newFixture(t)
	manga := cubari.NewManga()

	path, err := f.controller.ExportChapters(context.Background(), &data.MangaFileInfo{Manga: manga}, integrations.ExportOptions{OutputDir: "/tmp"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.epub", path)
	assert.Same(t, manga, f.exporter.got)

	_, err = f.controller.ExportChapters(context.Background(), &data.MangaFileInfo{}, integrations.ExportOptions{})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(in, []byte(sampleJSON), 0o644))

	require.NoError(t, f.controller.RoundTrip(in, out))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON+"\n", string(got))

	require.NoError(t, os.WriteFile(in, []byte(`{"chapters": 3}`), 0o644))
	assert.Error(t, f.controller.RoundTrip(in, out))
	assert.Error(t, f.controller.RoundTrip(filepath.Join(dir, "missing.json"), out))
}

func TestOfflineFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.controller.Connect(context.Background()))
	require.NoError(t, f.controller.SelectRepository("sho/manga"))
	require.NoError(t, f.controller.FetchSelectedRepo(context.Background()))

	repos, err := f.controller.OfflineRepositories()
	require.NoError(t, err)
	assert.Len(t, repos, 2)

	files, err := f.controller.OfflineFiles("sho/manga")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Test Manga", files[0].Title)
	assert.Equal(t, 1, files[0].Chapters)

	_, err = f.controller.OfflineFiles("sho/unknown")
	assert.ErrorIs(t, err, ErrUnknownRepository)
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t)
	f.controller.Settings().Window.Width = 1000
	require.NoError(t, f.controller.SaveSettings())

	loaded, err := config.Load(f.store.Path)
	require.NoError(t, err)
	assert.Equal(t, 1000, loaded.Window.Width)
}
