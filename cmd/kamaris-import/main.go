package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kamaris/internal/config"
	"kamaris/internal/storage"
	"kamaris/internal/storage/sqlite"

	"github.com/adrg/frontmatter"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const maxFileSize = 10 * 1024 * 1024

// postMeta is the yaml front matter of one markdown post file.
type postMeta struct {
	Title         string   `yaml:"title"`
	Summary       string   `yaml:"summary"`
	Author        string   `yaml:"author"`
	PublishedDate string   `yaml:"published_date"`
	Tags          []string `yaml:"tags"`
	FeaturedImage string   `yaml:"featured_image"`
	ReadTime      int64    `yaml:"read_time_minutes"`
	Featured      bool     `yaml:"featured"`
	Draft         bool     `yaml:"draft"`
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory of markdown post files to import")
		createAdmin = flag.String("create-admin", "", "create an admin account with this username (prompts for password)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.LoadWithDefaults()

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		logger.Error("could not open database", "path", cfg.DB.Path, "err", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *createAdmin != "" {
		if err := addAdmin(ctx, store, *createAdmin); err != nil {
			logger.Error("could not create admin", "username", *createAdmin, "err", err)
			os.Exit(1)
		}
		logger.Info("admin created", "username", *createAdmin)
	}

	if *dir != "" {
		imported, failed := importDir(ctx, store, *dir, logger)
		logger.Info("import finished", "imported", imported, "failed", failed)
		if failed > 0 {
			os.Exit(1)
		}
	}
}

func importDir(ctx context.Context, store storage.Store, dir string, logger *slog.Logger) (imported, failed int) {
	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil || len(files) == 0 {
		logger.Error("no markdown files found", "dir", dir, "err", err)
		return 0, 1
	}

	for _, fileName := range files {
		post, err := loadPost(fileName)
		if err != nil {
			logger.Error("skipping file", "file", fileName, "err", err)
			failed++
			continue
		}

		created, err := store.CreatePost(ctx, post)
		if err != nil {
			if errors.Is(err, storage.ErrUniqueViolation) {
				logger.Warn("slug already imported, skipping", "slug", post.Slug)
				continue
			}
			logger.Error("insert failed", "slug", post.Slug, "err", err)
			failed++
			continue
		}

		logger.Info("imported", "slug", created.Slug, "title", created.Title, "status", created.Status)
		imported++
	}

	return imported, failed
}

func loadPost(fileName string) (*storage.BlogPost, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if stats, err := file.Stat(); err == nil && stats.Size() > maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes", stats.Size())
	}

	var meta postMeta
	body, err := frontmatter.Parse(bufio.NewReader(file), &meta)

	// fallback for files without frontmatter
	if err != nil || meta.Title == "" {
		file.Seek(0, io.SeekStart)
		meta.Title = fallbackTitleScan(file)

		if err != nil {
			file.Seek(0, io.SeekStart)
			if body, err = io.ReadAll(file); err != nil {
				return nil, err
			}
		}
	}

	published := time.Now().UTC()
	if meta.PublishedDate != "" {
		if parsed, err := time.Parse("2006-01-02", meta.PublishedDate); err == nil {
			published = parsed
		}
	}

	status := storage.StatusPublished
	if meta.Draft {
		status = storage.StatusDraft
	}

	post := &storage.BlogPost{
		Slug:          slugFromFilename(fileName),
		Title:         meta.Title,
		Summary:       meta.Summary,
		Content:       string(body),
		ContentType:   storage.ContentTypeMarkdown,
		FeaturedImage: meta.FeaturedImage,
		Author:        meta.Author,
		PublishedDate: published,
		Tags:          storage.StringList(meta.Tags),
		Status:        status,
		Featured:      meta.Featured,
	}
	if meta.ReadTime > 0 {
		post.ReadTimeMinutes = &meta.ReadTime
	}

	return post, nil
}

// slugFromFilename turns "content/my-first-post.md" into "my-first-post".
func slugFromFilename(fileName string) string {
	base := filepath.Base(fileName)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func fallbackTitleScan(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	// if title is not within first 20 lines, it's likely not there at all
	linesScanned := 0
	for scanner.Scan() {
		linesScanned++
		if linesScanned > 20 {
			break
		}
		if _, title, found := strings.Cut(scanner.Text(), "# "); found {
			return strings.TrimSpace(title)
		}
	}
	return "Untitled Post"
}

func addAdmin(ctx context.Context, store storage.Store, username string) error {
	fmt.Fprintf(os.Stderr, "password for %s: ", username)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("could not read password: %w", err)
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword(password, 12)
	if err != nil {
		return err
	}

	_, err = store.CreateAdmin(ctx, username, string(hash))
	return err
}
