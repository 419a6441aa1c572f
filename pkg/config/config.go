package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	AppName = "manga-uploader"

	EnvConfig   = "MANGA_UPLOADER_CONFIG"
	EnvClientID = "MANGA_UPLOADER_CLIENT_ID"
	EnvDebug    = "MANGA_UPLOADER_DEBUG"
	EnvIndex    = "MANGA_UPLOADER_INDEX"

	DefaultWindowWidth  = 600
	DefaultWindowHeight = 800
)

// Settings is what survives between runs.
type Settings struct {
	Window struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"window"`

	GitHub struct {
		UserID     *int64  `yaml:"user_id,omitempty"`
		RepoID     *int64  `yaml:"repo_id,omitempty"`
		RepoName   string  `yaml:"repo_name"`
		KnownUsers []int64 `yaml:"known_users"`
	} `yaml:"github"`
}

func Defaults() *Settings {
	s := &Settings{}
	s.Window.Width = DefaultWindowWidth
	s.Window.Height = DefaultWindowHeight
	s.GitHub.KnownUsers = []int64{}
	return s
}

// RememberUser records the logged in user and adds it to the known users.
func (s *Settings) RememberUser(id int64) {
	s.GitHub.UserID = &id
	for _, known := range s.GitHub.KnownUsers {
		if known == id {
			return
		}
	}
	s.GitHub.KnownUsers = append(s.GitHub.KnownUsers, id)
}

func (s *Settings) RememberRepository(name string, id int64) {
	s.GitHub.RepoName = name
	s.GitHub.RepoID = &id
}

func (s *Settings) ForgetRepository() {
	s.GitHub.RepoName = ""
	s.GitHub.RepoID = nil
}

// Env holds the process level overrides.
type Env struct {
	ConfigPath string
	IndexPath  string
	ClientID   string
	Debug      bool
}

// LoadEnv reads an optional .env file and then the environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	debug, _ := strconv.ParseBool(os.Getenv(EnvDebug))
	return Env{
		ConfigPath: os.Getenv(EnvConfig),
		IndexPath:  os.Getenv(EnvIndex),
		ClientID:   os.Getenv(EnvClientID),
		Debug:      debug,
	}
}

// Dir is the per-user directory holding settings, logs and the index.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate user config dir")
	}
	return filepath.Join(base, AppName), nil
}

// DefaultPath returns the settings file path, honouring the env override.
func DefaultPath(env Env) (string, error) {
	if env.ConfigPath != "" {
		return env.ConfigPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// Load reads settings from path on top of the defaults. A missing file is
// not an error.
func Load(path string) (*Settings, error) {
	s := Defaults()

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, errors.Wrapf(err, "read settings %s", path)
	}

	if err := yaml.Unmarshal(b, s); err != nil {
		return Defaults(), errors.Wrapf(err, "parse settings %s", path)
	}
	if s.Window.Width <= 0 {
		s.Window.Width = DefaultWindowWidth
	}
	if s.Window.Height <= 0 {
		s.Window.Height = DefaultWindowHeight
	}
	if s.GitHub.KnownUsers == nil {
		s.GitHub.KnownUsers = []int64{}
	}
	return s, nil
}

// Save writes settings to path through a temporary file.
func Save(path string, s *Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create settings directory")
	}

	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create temp settings")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close settings")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "replace settings")
}

// Store binds settings to the file they came from.
type Store struct {
	Path     string
	Settings *Settings
}

func Open(path string) (*Store, error) {
	s, err := Load(path)
	return &Store{Path: path, Settings: s}, err
}

func (s *Store) Save() error {
	return Save(s.Path, s.Settings)
}
