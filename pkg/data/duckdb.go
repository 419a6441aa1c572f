package data

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/pkg/errors"
)

// No primary keys: rows are replaced with DELETE then INSERT in one transaction.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS repositories (
		id BIGINT NOT NULL,
		name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS manga_files (
		repository_id BIGINT NOT NULL,
		path VARCHAR NOT NULL,
		sha VARCHAR NOT NULL,
		title VARCHAR,
		chapters INTEGER,
		indexed_at TIMESTAMP NOT NULL
	)`,
}

// InitDuckDB opens the index database at path and creates its tables.
func InitDuckDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create index directory")
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "open index")
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create index schema")
		}
	}
	return db, nil
}

// Repository is the local index of repositories and manga files last seen on GitHub.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// OpenRepository opens (or creates) the index at path.
func OpenRepository(path string) (*Repository, error) {
	db, err := InitDuckDB(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(db), nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveRepositories replaces the known repositories.
func (r *Repository) SaveRepositories(repos []RepositoryInfo) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM repositories`); err != nil {
		return errors.Wrap(err, "clear repositories")
	}
	for _, repo := range repos {
		if _, err := tx.Exec(`INSERT INTO repositories (id, name) VALUES (?, ?)`, repo.ID, repo.Name); err != nil {
			return errors.Wrapf(err, "save repository %s", repo.Name)
		}
	}
	return errors.Wrap(tx.Commit(), "commit repositories")
}

func (r *Repository) ListRepositories() ([]RepositoryInfo, error) {
	rows, err := r.db.Query(`SELECT id, name FROM repositories ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list repositories")
	}
	defer rows.Close()

	var repos []RepositoryInfo
	for rows.Next() {
		var repo RepositoryInfo
		if err := rows.Scan(&repo.ID, &repo.Name); err != nil {
			return nil, errors.Wrap(err, "scan repository")
		}
		repos = append(repos, repo)
	}
	return repos, rows.Err()
}

// FindRepository looks a repository up by full name.
func (r *Repository) FindRepository(name string) (*RepositoryInfo, error) {
	var repo RepositoryInfo
	err := r.db.QueryRow(`SELECT id, name FROM repositories WHERE name = ?`, name).Scan(&repo.ID, &repo.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find repository %s", name)
	}
	return &repo, nil
}

// ReplaceMangaFiles swaps the indexed files of a repository for files.
func (r *Repository) ReplaceMangaFiles(repositoryID int64, files []MangaFileInfo) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM manga_files WHERE repository_id = ?`, repositoryID); err != nil {
		return errors.Wrap(err, "clear manga files")
	}

	now := r.now().UTC()
	for _, f := range files {
		s := Summarize(f)
		_, err := tx.Exec(
			`INSERT INTO manga_files (repository_id, path, sha, title, chapters, indexed_at) VALUES (?, ?, ?, ?, ?, ?)`,
			repositoryID, s.Path, s.SHA, s.Title, s.Chapters, now,
		)
		if err != nil {
			return errors.Wrapf(err, "index %s", f.Path)
		}
	}
	return errors.Wrap(tx.Commit(), "commit manga files")
}

// UpdateMangaFile indexes a single file, for instance after a commit.
func (r *Repository) UpdateMangaFile(f MangaFileInfo) error {
	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	s := Summarize(f)
	if _, err := tx.Exec(`DELETE FROM manga_files WHERE repository_id = ? AND path = ?`, s.RepositoryID, s.Path); err != nil {
		return errors.Wrapf(err, "unindex %s", f.Path)
	}
	_, err = tx.Exec(
		`INSERT INTO manga_files (repository_id, path, sha, title, chapters, indexed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.RepositoryID, s.Path, s.SHA, s.Title, s.Chapters, r.now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "index %s", f.Path)
	}
	return errors.Wrap(tx.Commit(), "commit manga file")
}

func (r *Repository) ListMangaFiles(repositoryID int64) ([]MangaFileSummary, error) {
	rows, err := r.db.Query(
		`SELECT repository_id, path, sha, COALESCE(title, ''), COALESCE(chapters, 0), indexed_at
		 FROM manga_files WHERE repository_id = ? ORDER BY path`,
		repositoryID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list manga files")
	}
	defer rows.Close()

	var files []MangaFileSummary
	for rows.Next() {
		var f MangaFileSummary
		if err := rows.Scan(&f.RepositoryID, &f.Path, &f.SHA, &f.Title, &f.Chapters, &f.IndexedAt); err != nil {
			return nil, errors.Wrap(err, "scan manga file")
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *Repository) DeleteRepositoryFiles(repositoryID int64) error {
	_, err := r.db.Exec(`DELETE FROM manga_files WHERE repository_id = ?`, repositoryID)
	return errors.Wrap(err, "delete manga files")
}
