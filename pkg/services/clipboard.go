package services

import (
	"github.com/atotto/clipboard"
	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/logger"
)

type ClipboardService struct {
	write func(string) error
	read  func() (string, error)
}

func NewClipboardService() *ClipboardService {
	return &ClipboardService{write: clipboard.WriteAll, read: clipboard.ReadAll}
}

// CopyTextToClipboard ignores empty text.
func (c *ClipboardService) CopyTextToClipboard(text string) error {
	if text == "" {
		return nil
	}
	if clipboard.Unsupported {
		logger.For("clipboard").Warn("no clipboard utility available")
	}
	return errors.Wrap(c.write(text), "write clipboard")
}

func (c *ClipboardService) CopyTextFromClipboard() (string, error) {
	text, err := c.read()
	if err != nil {
		return "", errors.Wrap(err, "read clipboard")
	}
	return text, nil
}
