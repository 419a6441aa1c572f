package services

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/config"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/shohabby/manga-uploader/pkg/sources"
)

var (
	ErrNoRepositorySelected = errors.New("no repository selected")
	ErrUnknownRepository    = errors.New("unknown repository")
)

// Index is the local copy of what was last fetched from GitHub.
type Index interface {
	SaveRepositories(repos []data.RepositoryInfo) error
	ListRepositories() ([]data.RepositoryInfo, error)
	FindRepository(name string) (*data.RepositoryInfo, error)
	ReplaceMangaFiles(repositoryID int64, files []data.MangaFileInfo) error
	UpdateMangaFile(f data.MangaFileInfo) error
	ListMangaFiles(repositoryID int64) ([]data.MangaFileSummary, error)
}

// Clipboard receives the device code.
type Clipboard interface {
	CopyTextToClipboard(text string) error
}

// Exporter turns a manga into a book file.
type Exporter interface {
	Export(ctx context.Context, manga *cubari.Manga, opts integrations.ExportOptions) (string, error)
}

// State is a snapshot of what the UI shows.
type State struct {
	User               data.UserInfo
	DeviceFlowCode     string
	VerificationURI    string
	Repositories       []data.RepositoryInfo
	SelectedRepository *data.RepositoryInfo
	Files              []data.MangaFileInfo
	IsAuthenticated    bool
	IsLoading          bool
}

// UploaderController holds the session and runs every user command.
type UploaderController struct {
	source    sources.Source
	auth      *auth.Authenticator
	index     Index
	settings  *config.Store
	clipboard Clipboard
	exporter  Exporter
	cubari    *CubariService

	codes chan auth.DeviceCode

	mu    sync.RWMutex
	state State
}

type ControllerConfig struct {
	Source    sources.Source
	Auth      *auth.Authenticator
	Index     Index
	Settings  *config.Store
	Clipboard Clipboard
	Exporter  Exporter
}

func NewUploaderController(cfg ControllerConfig) *UploaderController {
	c := &UploaderController{
		source:    cfg.Source,
		auth:      cfg.Auth,
		index:     cfg.Index,
		settings:  cfg.Settings,
		clipboard: cfg.Clipboard,
		exporter:  cfg.Exporter,
		cubari:    NewCubariService(),
		codes:     make(chan auth.DeviceCode, 1),
	}
	if c.settings == nil {
		c.settings = &config.Store{Settings: config.Defaults()}
	}
	c.state.User = data.DefaultUser
	c.auth.OnCode = c.publishCode
	return c
}

// DeviceCodes delivers the code to show while a login is pending.
func (c *UploaderController) DeviceCodes() <-chan auth.DeviceCode {
	return c.codes
}

func (c *UploaderController) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Repositories = append([]data.RepositoryInfo(nil), c.state.Repositories...)
	s.Files = append([]data.MangaFileInfo(nil), c.state.Files...)
	return s
}

func (c *UploaderController) Settings() *config.Settings {
	return c.settings.Settings
}

func (c *UploaderController) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
}

func (c *UploaderController) setLoading(loading bool) {
	c.update(func(s *State) { s.IsLoading = loading })
}

func (c *UploaderController) publishCode(code auth.DeviceCode) {
	c.update(func(s *State) {
		s.DeviceFlowCode = code.UserCode
		s.VerificationURI = code.VerificationURI
	})
	if c.clipboard != nil {
		if err := c.clipboard.CopyTextToClipboard(code.UserCode); err != nil {
			logger.For("controller").WithError(err).Warn("could not copy device code")
		}
	}

	// Keep only the newest code.
	select {
	case <-c.codes:
	default:
	}
	select {
	case c.codes <- code:
	default:
	}
}

// Connect logs out when a session exists. Otherwise it logs in, loads the
// repositories and reopens the repository used last time.
func (c *UploaderController) Connect(ctx context.Context) error {
	if c.auth.IsAuthenticated() {
		return c.Logout()
	}

	c.setLoading(true)
	defer c.setLoading(false)

	user, err := c.auth.Authenticate(ctx)
	c.update(func(s *State) {
		s.DeviceFlowCode = ""
		s.VerificationURI = ""
	})
	if err != nil {
		return err
	}

	c.source.SetToken(c.auth.Token())
	c.settings.Settings.RememberUser(user.ID)
	c.update(func(s *State) {
		s.User = *user
		s.IsAuthenticated = true
	})

	if err := c.fetchRepositories(ctx); err != nil {
		return err
	}

	saved := c.settings.Settings.GitHub.RepoName
	if saved == "" {
		return nil
	}
	if err := c.SelectRepository(saved); err != nil {
		logger.For("controller").WithField("repo", saved).Warn("saved repository is gone")
		c.settings.Settings.ForgetRepository()
		return nil
	}
	return c.fetchSelectedRepo(ctx)
}

// Logout drops the session and the saved token.
func (c *UploaderController) Logout() error {
	err := c.auth.Disconnect()
	c.source.ClearToken()
	c.update(func(s *State) {
		*s = State{User: data.DefaultUser}
	})
	return errors.Wrap(err, "forget token")
}

// HasSavedCredentials reports whether a login can skip the device flow.
func (c *UploaderController) HasSavedCredentials() bool {
	return c.auth.HasSavedCredentials()
}

func (c *UploaderController) requireAuth() error {
	if !c.auth.IsAuthenticated() {
		return auth.ErrNotAuthenticated
	}
	return nil
}

func (c *UploaderController) FetchRepositories(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)
	return c.fetchRepositories(ctx)
}

func (c *UploaderController) fetchRepositories(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	repos, err := c.source.ListRepositories(ctx)
	if err != nil {
		return err
	}
	c.update(func(s *State) { s.Repositories = repos })

	if c.index != nil {
		if err := c.index.SaveRepositories(repos); err != nil {
			logger.For("controller").WithError(err).Warn("could not index repositories")
		}
	}
	return nil
}

// SelectRepository picks one of the fetched repositories by full name.
func (c *UploaderController) SelectRepository(name string) error {
	var found *data.RepositoryInfo
	c.mu.RLock()
	for _, r := range c.state.Repositories {
		if r.Name == name {
			r := r
			found = &r
			break
		}
	}
	c.mu.RUnlock()
	if found == nil {
		return errors.Wrap(ErrUnknownRepository, name)
	}

	c.update(func(s *State) {
		s.SelectedRepository = found
		s.Files = nil
	})
	c.settings.Settings.RememberRepository(found.Name, found.ID)
	return nil
}

// FetchSelectedRepo loads the manga files of the selected repository and
// refreshes the index with them.
func (c *UploaderController) FetchSelectedRepo(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)
	return c.fetchSelectedRepo(ctx)
}

func (c *UploaderController) fetchSelectedRepo(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	repo := c.State().SelectedRepository
	if repo == nil {
		return ErrNoRepositorySelected
	}

	files, err := c.source.FetchRepoMangaContents(ctx, *repo)
	if err != nil {
		return err
	}
	c.update(func(s *State) { s.Files = files })

	if c.index != nil {
		if err := c.index.ReplaceMangaFiles(repo.ID, files); err != nil {
			logger.For("controller").WithError(err).WithField("repo", repo.Name).Warn("could not index files")
		}
	}
	return nil
}

// GetFile reads one manga file of the selected repository.
func (c *UploaderController) GetFile(ctx context.Context, path string) (*data.MangaFileInfo, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	repo := c.State().SelectedRepository
	if repo == nil {
		return nil, ErrNoRepositorySelected
	}

	c.setLoading(true)
	defer c.setLoading(false)
	return c.source.GetMangaFile(ctx, *repo, path)
}

// SaveFile commits file to the selected repository and records the new SHA.
func (c *UploaderController) SaveFile(ctx context.Context, file *data.MangaFileInfo, message string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	repo := c.State().SelectedRepository
	if repo == nil {
		return ErrNoRepositorySelected
	}

	c.setLoading(true)
	defer c.setLoading(false)

	sha, err := c.source.SaveMangaFile(ctx, *repo, file, message)
	if err != nil {
		return err
	}
	file.SHA = sha
	file.RepositoryID = repo.ID

	c.update(func(s *State) {
		for i := range s.Files {
			if s.Files[i].Path == file.Path {
				s.Files[i] = *file
				return
			}
		}
		s.Files = append(s.Files, *file)
	})

	if c.index != nil {
		if err := c.index.UpdateMangaFile(*file); err != nil {
			logger.For("controller").WithError(err).WithField("path", file.Path).Warn("could not index file")
		}
	}
	return nil
}

// ExportChapters builds an EPUB of the file's chapters and returns its path.
func (c *UploaderController) ExportChapters(ctx context.Context, file *data.MangaFileInfo, opts integrations.ExportOptions) (string, error) {
	if c.exporter == nil {
		return "", errors.New("export is not configured")
	}
	if file == nil || file.Manga == nil {
		return "", errors.New("no manga to export")
	}
	c.setLoading(true)
	defer c.setLoading(false)
	return c.exporter.Export(ctx, file.Manga, opts)
}

// RoundTrip reads a Cubari file, decodes it and writes it back to out.
func (c *UploaderController) RoundTrip(in, out string) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "read %s", in)
	}
	m := c.cubari.DeserializeManga(string(raw))
	if m == nil {
		return errors.Errorf("%s is not a Cubari file", in)
	}
	text, ok := c.cubari.SerializeManga(m)
	if !ok {
		return errors.Errorf("could not serialize %s", in)
	}
	return errors.Wrapf(os.WriteFile(out, []byte(text+"\n"), 0o644), "write %s", out)
}

// OfflineRepositories lists the repositories from the index.
func (c *UploaderController) OfflineRepositories() ([]data.RepositoryInfo, error) {
	if c.index == nil {
		return nil, errors.New("no index")
	}
	return c.index.ListRepositories()
}

// OfflineFiles lists the indexed files of a repository by full name.
func (c *UploaderController) OfflineFiles(name string) ([]data.MangaFileSummary, error) {
	if c.index == nil {
		return nil, errors.New("no index")
	}
	repo, err := c.index.FindRepository(name)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, errors.Wrap(ErrUnknownRepository, name)
	}
	return c.index.ListMangaFiles(repo.ID)
}

// SaveSettings writes the settings file.
func (c *UploaderController) SaveSettings() error {
	if c.settings.Path == "" {
		return nil
	}
	return c.settings.Save()
}
