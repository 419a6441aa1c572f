package sources

import (
	"context"

	"github.com/shohabby/manga-uploader/pkg/data"
)

// Source is where the manga files live.
type Source interface {
	CurrentUser(ctx context.Context, token string) (*data.UserInfo, error)
	SetToken(token string)
	ClearToken()

	ListRepositories(ctx context.Context) ([]data.RepositoryInfo, error)
	FetchRepoMangaContents(ctx context.Context, repo data.RepositoryInfo) ([]data.MangaFileInfo, error)
	GetMangaFile(ctx context.Context, repo data.RepositoryInfo, path string) (*data.MangaFileInfo, error)
	SaveMangaFile(ctx context.Context, repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error)
}
