package screens

import (
	"context"
	"testing"

	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/services"
)

const testManga = `{
  "title": "Test Manga",
  "description": "A test",
  "artist": "",
  "author": "Someone",
  "cover": "",
  "chapters": {
    "1": {
      "title": "Start",
      "volume": "1",
      "groups": {
        "Team": "/proxy/api/imgchest/chapter/abc/",
        "Other": ["https://example.com/1.png"]
      },
      "last_updated": "1700000000"
    },
    "2": {
      "title": "Next",
      "volume": "",
      "groups": {
        "Team": "/proxy/api/imgchest/chapter/def/"
      },
      "last_updated": "1700000000"
    }
  }
}`

var testRepo = data.RepositoryInfo{Name: "sho/manga", ID: 7}

type fakeSource struct {
	saved []data.MangaFileInfo
	files []data.MangaFileInfo
}

func (f *fakeSource) CurrentUser(ctx context.Context, token string) (*data.UserInfo, error) {
	return &data.UserInfo{ID: 1, Login: "octocat"}, nil
}

func (f *fakeSource) SetToken(token string) {}

func (f *fakeSource) ClearToken() {}

func (f *fakeSource) ListRepositories(ctx context.Context) ([]data.RepositoryInfo, error) {
	return []data.RepositoryInfo{testRepo, {Name: "sho/notes", ID: 8}}, nil
}

func (f *fakeSource) FetchRepoMangaContents(ctx context.Context, repo data.RepositoryInfo) ([]data.MangaFileInfo, error) {
	return f.files, nil
}

func (f *fakeSource) GetMangaFile(ctx context.Context, repo data.RepositoryInfo, path string) (*data.MangaFileInfo, error) {
	return nil, nil
}

func (f *fakeSource) SaveMangaFile(ctx context.Context, repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error) {
	f.saved = append(f.saved, *file)
	return "sha-saved", nil
}

type emptyVault struct{}

func (emptyVault) Get() (string, error) { return "", auth.ErrNoCredentials }
func (emptyVault) Set(string) error     { return nil }
func (emptyVault) Delete() error        { return nil }

type instantFlow struct{}

func (instantFlow) Start(ctx context.Context) (*auth.DeviceCode, error) {
	return &auth.DeviceCode{UserCode: "ABCD-1234", VerificationURI: "https://github.com/login/device"}, nil
}

func (instantFlow) Poll(ctx context.Context, code *auth.DeviceCode) (string, error) {
	return "token", nil
}

type recordingClipboard struct {
	copied []string
}

func (c *recordingClipboard) CopyTextToClipboard(text string) error {
	c.copied = append(c.copied, text)
	return nil
}

func testFile(t *testing.T) data.MangaFileInfo {
	t.Helper()
	manga, err := cubari.Unmarshal([]byte(testManga))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return data.MangaFileInfo{Path: "test.json", SHA: "sha1", RepositoryID: testRepo.ID, Manga: manga}
}

// newTestController returns a logged in controller with testRepo selected.
func newTestController(t *testing.T) (*services.UploaderController, *fakeSource) {
	t.Helper()
	source := &fakeSource{files: []data.MangaFileInfo{testFile(t)}}
	controller := services.NewUploaderController(services.ControllerConfig{
		Source: source,
		Auth:   auth.NewAuthenticator(emptyVault{}, instantFlow{}, source),
	})

	ctx := context.Background()
	if err := controller.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := controller.SelectRepository(testRepo.Name); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := controller.FetchSelectedRepo(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	return controller, source
}
