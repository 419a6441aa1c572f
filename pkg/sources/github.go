package sources

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/google/go-github/v66/github"
	"github.com/pkg/errors"
	"github.com/shohabby/manga-uploader/pkg/cubari"
	"github.com/shohabby/manga-uploader/pkg/data"
	"github.com/shohabby/manga-uploader/pkg/logger"
)

const (
	perPage = 100
	// maxFetches bounds how many files are downloaded at once.
	maxFetches = 4
)

// GitHub reads and commits manga files through the REST API.
type GitHub struct {
	httpClient *http.Client
	baseURL    *url.URL

	mu     sync.RWMutex
	client *github.Client
}

func NewGitHub(httpClient *http.Client) *GitHub {
	g := &GitHub{httpClient: httpClient}
	g.client = g.newClient("")
	return g
}

// WithBaseURL points the client at another API root, e.g. a test server.
func (g *GitHub) WithBaseURL(u string) (*GitHub, error) {
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	g.baseURL = parsed
	g.mu.Lock()
	g.client = g.newClient("")
	g.mu.Unlock()
	return g, nil
}

func (g *GitHub) newClient(token string) *github.Client {
	c := github.NewClient(g.httpClient)
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if g.baseURL != nil {
		c.BaseURL = g.baseURL
	}
	return c
}

func (g *GitHub) api() *github.Client {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client
}

func (g *GitHub) SetToken(token string) {
	g.mu.Lock()
	g.client = g.newClient(token)
	g.mu.Unlock()
}

func (g *GitHub) ClearToken() {
	g.SetToken("")
}

// CurrentUser fetches the owner of token without keeping it.
func (g *GitHub) CurrentUser(ctx context.Context, token string) (*data.UserInfo, error) {
	user, _, err := g.newClient(token).Users.Get(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "fetch current user")
	}
	return &data.UserInfo{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		Email:     user.GetEmail(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

// ListRepositories returns every non archived repository the user can see.
func (g *GitHub) ListRepositories(ctx context.Context) ([]data.RepositoryInfo, error) {
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "full_name",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []data.RepositoryInfo
	for {
		repos, resp, err := g.api().Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, errors.Wrap(err, "list repositories")
		}
		for _, r := range repos {
			if r.GetArchived() {
				continue
			}
			out = append(out, data.RepositoryInfo{Name: r.GetFullName(), ID: r.GetID()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	logger.For("github").WithField("count", len(out)).Debug("listed repositories")
	return out, nil
}

// FetchRepoMangaContents walks the repository breadth first and returns every
// JSON file that parses as a Cubari manga. Files that fail are skipped.
func (g *GitHub) FetchRepoMangaContents(ctx context.Context, repo data.RepositoryInfo) ([]data.MangaFileInfo, error) {
	log := logger.For("github").WithField("repo", repo.Name)

	var paths []string
	queue := []string{""}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		_, entries, _, err := g.api().Repositories.GetContents(ctx, repo.Owner(), repo.Repo(), dir, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "list %s:%s", repo.Name, dir)
		}
		for _, entry := range entries {
			switch entry.GetType() {
			case "dir":
				queue = append(queue, entry.GetPath())
			case "file":
				if strings.EqualFold(path.Ext(entry.GetName()), ".json") {
					paths = append(paths, entry.GetPath())
				}
			}
		}
	}

	results := make([]*data.MangaFileInfo, len(paths))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxFetches)

	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			file, err := g.GetMangaFile(ctx, repo, p)
			if err != nil {
				log.WithError(err).WithField("path", p).Warn("skipping file")
				return
			}
			results[i] = file
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := make([]data.MangaFileInfo, 0, len(results))
	for _, f := range results {
		if f != nil {
			files = append(files, *f)
		}
	}
	log.WithField("count", len(files)).Info("fetched manga files")
	return files, nil
}

func (g *GitHub) GetMangaFile(ctx context.Context, repo data.RepositoryInfo, p string) (*data.MangaFileInfo, error) {
	content, _, _, err := g.api().Repositories.GetContents(ctx, repo.Owner(), repo.Repo(), p, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", p)
	}
	if content == nil {
		return nil, errors.Errorf("%s is a directory", p)
	}

	raw, err := content.GetContent()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", p)
	}
	manga, err := cubari.Unmarshal([]byte(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", p)
	}

	return &data.MangaFileInfo{
		Path:         content.GetPath(),
		SHA:          content.GetSHA(),
		RepositoryID: repo.ID,
		Manga:        manga,
	}, nil
}

// SaveMangaFile commits the file and returns the SHA of the new blob. A file
// without SHA is created, otherwise updated.
func (g *GitHub) SaveMangaFile(ctx context.Context, repo data.RepositoryInfo, file *data.MangaFileInfo, message string) (string, error) {
	if file == nil || file.Manga == nil {
		return "", errors.New("nothing to save")
	}
	body, err := cubari.Marshal(file.Manga)
	if err != nil {
		return "", err
	}
	if message == "" {
		message = "Update " + file.Path
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: body,
	}

	var resp *github.RepositoryContentResponse
	if file.SHA == "" {
		resp, _, err = g.api().Repositories.CreateFile(ctx, repo.Owner(), repo.Repo(), file.Path, opts)
	} else {
		opts.SHA = github.String(file.SHA)
		resp, _, err = g.api().Repositories.UpdateFile(ctx, repo.Owner(), repo.Repo(), file.Path, opts)
	}
	if err != nil {
		return "", errors.Wrapf(err, "commit %s", file.Path)
	}

	sha := resp.GetContent().GetSHA()
	logger.For("github").WithFields(map[string]any{"repo": repo.Name, "path": file.Path, "sha": sha}).Info("saved manga file")
	return sha, nil
}
