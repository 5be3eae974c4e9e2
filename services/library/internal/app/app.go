package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"arcanearchives/internal/util"
	"arcanearchives/pkg/domain"
	"arcanearchives/pkg/storage"
	"arcanearchives/pkg/store"
)

const (
	// DefaultMaxUploadBytes caps a single upload at 100 MiB.
	DefaultMaxUploadBytes int64 = 100 << 20
	// PublicPrefix is the URL path stored files are published under.
	PublicPrefix = "/uploads/"

	memoryDatabaseURL = "memory://"
	defaultUploadDir  = "public/uploads"
)

// DefaultAllowedExtensions is the upload allow-list used when none is configured.
var DefaultAllowedExtensions = []string{".pdf", ".epub", ".txt", ".doc", ".docx", ".jpg", ".jpeg", ".png"}

// Fallback text shown instead of a text book's content.
const (
	TextMissingMessage    = "File not found on server. Please download the file instead."
	TextUnreadableMessage = "Unable to read the text content. Please download the file instead."
)

// Config holds runtime configuration for the core application.
// Store and Files take precedence over DatabaseURL, UploadDir and Minio.
type Config struct {
	Store             store.Store
	Files             storage.Store
	DatabaseURL       string
	UploadDir         string
	Minio             *storage.MinioConfig
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// App wires metadata persistence and file storage into the library operations.
type App struct {
	store          store.Store
	files          storage.Store
	maxUploadBytes int64
	allowed        map[string]struct{}
	closeStore     func() error
	ping           func(context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// New constructs the application. Opening the database is part of
// construction, so a failure here means the process should not serve.
func New(cfg Config) (*App, error) {
	a := &App{
		store:          cfg.Store,
		files:          cfg.Files,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowed:        make(map[string]struct{}),
	}
	if a.maxUploadBytes <= 0 {
		a.maxUploadBytes = DefaultMaxUploadBytes
	}
	exts := cfg.AllowedExtensions
	if len(exts) == 0 {
		exts = DefaultAllowedExtensions
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		a.allowed[ext] = struct{}{}
	}

	if a.files == nil {
		var err error
		if cfg.Minio != nil {
			a.files, err = storage.NewMinioStore(*cfg.Minio)
		} else {
			dir := cfg.UploadDir
			if strings.TrimSpace(dir) == "" {
				dir = defaultUploadDir
			}
			a.files, err = storage.NewFileStore(dir)
		}
		if err != nil {
			return nil, fmt.Errorf("init file storage: %w", err)
		}
	}

	if a.store == nil {
		switch dsn := strings.TrimSpace(cfg.DatabaseURL); dsn {
		case "":
			return nil, errors.New("database URL required")
		case memoryDatabaseURL:
			a.store = store.NewMemoryStore()
		default:
			gs, err := store.NewGormStore(dsn)
			if err != nil {
				return nil, fmt.Errorf("init database store: %w", err)
			}
			a.store = gs
			a.closeStore = gs.Close
		}
	}
	if p, ok := a.store.(pinger); ok {
		a.ping = p.Ping
	}
	return a, nil
}

// Close releases the database connection when New opened it.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// Ping checks the record store when it supports a liveness check.
func (a *App) Ping(ctx context.Context) error {
	if a.ping == nil {
		return nil
	}
	return a.ping(ctx)
}

// MaxUploadBytes reports the per-file upload ceiling.
func (a *App) MaxUploadBytes() int64 {
	return a.maxUploadBytes
}

// UploadInput is one submitted upload form.
type UploadInput struct {
	Filename    string
	Title       string
	Description string
	Author      string
	Category    string
	Body        io.Reader
	// Size is the declared payload size, or -1 when unknown.
	Size int64
}

// UploadBook validates the upload, stores its bytes under a unique name and
// records the metadata.
func (a *App) UploadBook(ctx context.Context, in UploadInput) (domain.Book, error) {
	original := storage.BaseName(in.Filename)
	if in.Body == nil || original == "" {
		return domain.Book{}, ErrFileRequired
	}
	ext := storage.Ext(original)
	if _, ok := a.allowed[ext]; !ok {
		return domain.Book{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if in.Size > a.maxUploadBytes {
		return domain.Book{}, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, in.Size)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Book{}, ErrTitleRequired
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return domain.Book{}, ErrDescriptionRequired
	}

	log := util.LoggerFromContext(ctx)
	name := storage.UniqueName(original)
	written, err := a.files.Save(ctx, name, io.LimitReader(in.Body, a.maxUploadBytes+1), in.Size)
	if err != nil {
		if written > 0 {
			a.discardFile(ctx, name)
		}
		return domain.Book{}, fmt.Errorf("save file: %w", err)
	}
	if written > a.maxUploadBytes {
		a.discardFile(ctx, name)
		return domain.Book{}, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, a.maxUploadBytes)
	}

	var pages int
	if ext == ".pdf" {
		if ra, ok := in.Body.(io.ReaderAt); ok {
			if pages, err = countPDFPages(ra, written); err != nil {
				log.Debug("pdf page count unavailable", "file", name, "err", err)
			}
		}
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		author = domain.UploadAuthor
	}
	book, err := a.store.CreateBook(ctx, domain.Book{
		Title:        title,
		Description:  description,
		Author:       author,
		FileName:     name,
		OriginalName: original,
		FilePath:     PublicPrefix + name,
		FileSize:     written,
		FileType:     ext,
		PageCount:    pages,
		Category:     domain.ParseCategory(in.Category),
		IsPublic:     true,
	})
	if err != nil {
		a.discardFile(ctx, name)
		return domain.Book{}, fmt.Errorf("save book: %w", err)
	}
	log.Info("book uploaded", "id", book.ID, "title", book.Title, "file", name, "size", written, "file_type", ext)
	return book, nil
}

// discardFile removes a file that will not be referenced by any record.
func (a *App) discardFile(ctx context.Context, name string) {
	if err := a.files.Delete(ctx, name); err != nil {
		util.LoggerFromContext(ctx).Warn("discard orphaned upload", "file", name, "err", err)
	}
}

// Library is the catalog view: every book plus the annotated legends.
type Library struct {
	Books   []domain.Book
	Legends []domain.LegendStatus
}

// Library lists all books newest first and cross-references the legends.
func (a *App) Library(ctx context.Context) (Library, error) {
	books, err := a.store.ListBooks(ctx)
	if err != nil {
		return Library{}, fmt.Errorf("list books: %w", err)
	}
	return Library{
		Books:   books,
		Legends: MatchLegends(LegendaryBooks, books),
	}, nil
}

// Reading is everything the reader page needs for one book.
type Reading struct {
	Book         domain.Book
	Presentation Presentation
	// Content holds the text of a plain-text book, or a fallback message.
	Content string
}

// ReadBook loads a book for the reader view. Text books carry their content;
// a missing or unreadable file degrades to a fallback message.
func (a *App) ReadBook(ctx context.Context, id string) (Reading, error) {
	book, ok, err := a.store.GetBook(ctx, id)
	if err != nil {
		return Reading{}, fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return Reading{}, ErrBookNotFound
	}
	reading := Reading{Book: book, Presentation: Classify(book)}
	if reading.Presentation.IsText {
		reading.Content = a.readText(ctx, book.FileName)
	}
	return reading, nil
}

func (a *App) readText(ctx context.Context, name string) string {
	log := util.LoggerFromContext(ctx)
	obj, err := a.files.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("text file missing", "file", name)
			return TextMissingMessage
		}
		log.Error("open text file", "file", name, "err", err)
		return TextUnreadableMessage
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		log.Error("read text file", "file", name, "err", err)
		return TextUnreadableMessage
	}
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), string(utf8.RuneError))
	}
	return string(data)
}

// OpenFile opens a stored file by its generated name.
// storage.ErrNotFound is returned for unknown names.
func (a *App) OpenFile(ctx context.Context, name string) (*storage.Object, error) {
	return a.files.Open(ctx, name)
}

// DeleteBook removes the stored file and then the record. Unknown ids and
// files that are already gone are not errors. The two steps are not atomic.
func (a *App) DeleteBook(ctx context.Context, id string) error {
	book, ok, err := a.store.GetBook(ctx, id)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}
	if !ok {
		return nil
	}
	if err := a.files.Delete(ctx, book.FileName); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete file: %w", err)
	}
	if err := a.store.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book deleted", "id", id, "file", book.FileName)
	return nil
}
