package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
)

type mockSource struct {
	mu    sync.Mutex
	token string

	currentUserFunc      func(token string) (*data.UserInfo, error)
	listRepositoriesFunc func() ([]data.RepositoryInfo, error)
	fetchContentsFunc    func(repo data.RepositoryInfo) ([]data.MangaFileInfo, error)
	getMangaFileFunc     func(repo data.RepositoryInfo, path string) (*data.MangaFileInfo, error)
	saveMangaFileFunc    func(repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error)
}

func (m *mockSource) CurrentUser(ctx context.Context, token string) (*data.UserInfo, error) {
	if m.currentUserFunc != nil {
		return m.currentUserFunc(token)
	}
	return &data.UserInfo{ID: 1, Login: "octocat"}, nil
}

func (m *mockSource) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *mockSource) ClearToken() {
	m.SetToken("")
}

func (m *mockSource) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockSource) ListRepositories(ctx context.Context) ([]data.RepositoryInfo, error) {
	if m.listRepositoriesFunc != nil {
		return m.listRepositoriesFunc()
	}
	return nil, nil
}

func (m *mockSource) FetchRepoMangaContents(ctx context.Context, repo data.RepositoryInfo) ([]data.MangaFileInfo, error) {
	if m.fetchContentsFunc != nil {
		return m.fetchContentsFunc(repo)
	}
	return nil, nil
}

func (m *mockSource) GetMangaFile(ctx context.Context, repo data.RepositoryInfo, path string) (*data.MangaFileInfo, error) {
	if m.getMangaFileFunc != nil {
		return m.getMangaFileFunc(repo, path)
	}
	return nil, errors.New("not found")
}

func (m *mockSource) SaveMangaFile(ctx context.Context, repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error) {
	if m.saveMangaFileFunc != nil {
		return m.saveMangaFileFunc(repo, file, message)
	}
	return "new-sha", nil
}

type mockIndex struct {
	repos []data.RepositoryInfo
	files map[int64][]data.MangaFileInfo
	saved []data.MangaFileInfo
	err   error
}

func newMockIndex() *mockIndex {
	return &mockIndex{files: map[int64][]data.MangaFileInfo{}}
}

func (m *mockIndex) SaveRepositories(repos []data.RepositoryInfo) error {
	m.repos = repos
	return m.err
}

func (m *mockIndex) ListRepositories() ([]data.RepositoryInfo, error) {
	return m.repos, m.err
}

func (m *mockIndex) FindRepository(name string) (*data.RepositoryInfo, error) {
	for _, r := range m.repos {
		if r.Name == name {
			return &r, nil
		}
	}
	return nil, m.err
}

func (m *mockIndex) ReplaceMangaFiles(repositoryID int64, files []data.MangaFileInfo) error {
	m.files[repositoryID] = files
	return m.err
}

func (m *mockIndex) UpdateMangaFile(f data.MangaFileInfo) error {
	m.saved = append(m.saved, f)
	return m.err
}

func (m *mockIndex) ListMangaFiles(repositoryID int64) ([]data.MangaFileSummary, error) {
	var out []data.MangaFileSummary
	for _, f := range m.files[repositoryID] {
		out = append(out, data.Summarize(f))
	}
	return out, m.err
}

type memoryVault struct {
	token string
}

func (v *memoryVault) Get() (string, error) {
	if v.token == "" {
		return "", auth.ErrNoCredentials
	}
	return v.token, nil
}

func (v *memoryVault) Set(token string) error {
	v.token = token
	return nil
}

func (v *memoryVault) Delete() error {
	v.token = ""
	return nil
}

type fakeFlow struct {
	token string
	err   error
}

func (f *fakeFlow) Start(ctx context.Context) (*auth.DeviceCode, error) {
	return &auth.DeviceCode{UserCode: "ABCD-1234", VerificationURI: "https://github.com/login/device"}, nil
}

func (f *fakeFlow) Poll(ctx context.Context, code *auth.DeviceCode) (string, error) {
	return f.token, f.err
}

type fakeClipboard struct {
	copied []string
}

func (c *fakeClipboard) CopyTextToClipboard(text string) error {
	c.copied = append(c.copied, text)
	return nil
}

type fakeExporter struct {
	got *cubari.Manga
}

func (e *fakeExporter) Export(ctx context.Context, manga *cubari.Manga, opts integrations.ExportOptions) (string, error) {
	e.got = manga
	return opts.OutputDir + "/out.epub", nil
}
