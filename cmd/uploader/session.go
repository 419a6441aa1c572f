package cmd

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/auth"
	"github.com/shohabby/manga-uploader/pkg/config"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/integrations"
	"github.com/shohabby/manga-uploader/pkg/logger"
	"github.com/shohabby/manga-uploader/pkg/services"
	"github.com/shohabby/manga-uploader/pkg/sources"
	"github.com/shohabby/manga-uploader/pkg/utils"
)

// session wires every service a command needs.
type session struct {
	env        config.Env
	dir        string
	store      *config.Store
	index      *data.Repository
	exporter   *integrations.EPubExporter
	clipboard  *services.ClipboardService
	controller *services.UploaderController

	closers []func() error
}

// openSession is swapped out in tests.
var openSession = newSession

func newSession(debug bool) (*session, error) {
	env := config.LoadEnv()
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	s := &session{env: env, dir: dir}

	closeLog, err := logger.Setup(logger.Config{Dir: filepath.Join(dir, "logs"), Debug: debug || env.Debug})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, closeLog)

	settingsPath, err := config.DefaultPath(env)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store, err = config.Open(settingsPath)
	if err != nil {
		// Broken settings fall back to the defaults.
		logger.For("cli").WithError(err).Warn("could not load settings")
	}

	indexPath := env.IndexPath
	if indexPath == "" {
		indexPath = filepath.Join(dir, "index.duckdb")
	}
	s.index, err = data.OpenRepository(indexPath)
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "open index")
	}
	s.closers = append(s.closers, s.index.Close)

	source := sources.NewGitHub(nil)
	authenticator := auth.NewAuthenticator(auth.NewKeyringVault(), auth.NewOAuthDeviceFlow(env.ClientID), source)

	s.exporter = integrations.NewEPubExporter(utils.NewAPI(nil))
	s.clipboard = services.NewClipboardService()
	s.controller = services.NewUploaderController(services.ControllerConfig{
		Source:    source,
		Auth:      authenticator,
		Index:     s.index,
		Settings:  s.store,
		Clipboard: s.clipboard,
		Exporter:  s.exporter,
	})

	logger.For("cli").WithField("index", indexPath).WithField("settings", settingsPath).Debug("session ready")
	return s, nil
}

// Close saves the settings and releases the index and the log file.
func (s *session) Close() {
	if s.controller != nil {
		if err := s.controller.SaveSettings(); err != nil {
			logger.For("cli").WithError(err).Warn("could not save settings")
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.For("cli").WithError(err).Warn("close failed")
		}
	}
	s.closers = nil
}

func (s *session) exportDir() string {
	return filepath.Join(s.dir, "exports")
}
