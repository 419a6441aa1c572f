package services

import (
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/logger"
)

// CubariService is the codec as the UI sees it: failures are logged and
// come back as empty results.
type CubariService struct{}

func NewCubariService() *CubariService {
	return &CubariService{}
}

// DeserializeManga returns nil when content is not a valid Cubari document.
func (s *CubariService) DeserializeManga(content string) *cubari.Manga {
	m, err := cubari.Unmarshal([]byte(content))
	if err != nil {
		logger.For("cubari").WithError(err).Error("could not deserialize manga")
		return nil
	}
	return m
}

func (s *CubariService) SerializeManga(m *cubari.Manga) (string, bool) {
	b, err := cubari.Marshal(m)
	if err != nil {
		logger.For("cubari").WithError(err).Error("could not serialize manga")
		return "", false
	}
	return string(b), true
}
