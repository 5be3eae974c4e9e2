package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arcanearchives/pkg/domain"
	"arcanearchives/pkg/storage"
	"arcanearchives/pkg/store"
)

type testEnv struct {
	app   *App
	store *store.MemoryStore
	dir   string
}

func newTestApp(t *testing.T, maxBytes int64) testEnv {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	files, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	mem := store.NewMemoryStore()
	a, err := New(Config{Store: mem, Files: files, MaxUploadBytes: maxBytes})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return testEnv{app: a, store: mem, dir: dir}
}

func (e testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (e testEnv) bookCount(t *testing.T) int {
	t.Helper()
	books, err := e.store.ListBooks(context.Background())
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	return len(books)
}

func upload(filename, body string) UploadInput {
	return UploadInput{
		Filename:    filename,
		Title:       "The Kybalion",
		Description: "Hermetic philosophy",
		Body:        strings.NewReader(body),
		Size:        int64(len(body)),
	}
}

func TestUploadBookStoresFileAndRecord(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()

	in := upload("Kybalion.TXT", "The All is Mind")
	in.Author = "Three Initiates"
	in.Category = "hermetic"
	book, err := env.app.UploadBook(ctx, in)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if book.ID == "" {
		t.Fatalf("expected store to assign an id")
	}
	if !strings.HasPrefix(book.FileName, "Kybalion-") || !strings.HasSuffix(book.FileName, ".TXT") {
		t.Fatalf("unexpected stored name %q", book.FileName)
	}
	if book.FilePath != PublicPrefix+book.FileName {
		t.Fatalf("file path = %q", book.FilePath)
	}
	if book.FileType != ".txt" || book.OriginalName != "Kybalion.TXT" || book.FileSize != 15 {
		t.Fatalf("unexpected metadata: %+v", book)
	}
	if book.Category != domain.CategoryHermetic || book.Author != "Three Initiates" || !book.IsPublic {
		t.Fatalf("unexpected metadata: %+v", book)
	}
	data, err := os.ReadFile(filepath.Join(env.dir, book.FileName))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "The All is Mind" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestUploadBookDefaults(t *testing.T) {
	env := newTestApp(t, 0)
	in := upload("tablet.pdf", "%PDF-not-really")
	in.Category = "astrology"
	book, err := env.app.UploadBook(context.Background(), in)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if book.Author != domain.UploadAuthor {
		t.Fatalf("author = %q, want %q", book.Author, domain.UploadAuthor)
	}
	if book.Category != domain.CategoryOther {
		t.Fatalf("category = %q, want other", book.Category)
	}
	if book.PageCount != 0 {
		t.Fatalf("page count = %d for an unparsable pdf, want 0", book.PageCount)
	}
}

func TestUploadBookValidation(t *testing.T) {
	tests := []struct {
		name string
		in   UploadInput
		want error
	}{
		{"missing file", UploadInput{Title: "t", Description: "d"}, ErrFileRequired},
		{"executable", upload("summon.exe", "MZ"), ErrUnsupportedFileType},
		{"no extension", upload("grimoire", "x"), ErrUnsupportedFileType},
		{"declared 101 MiB", UploadInput{Filename: "huge.pdf", Title: "t", Description: "d", Body: strings.NewReader("x"), Size: 101 << 20}, ErrFileTooLarge},
		{"blank title", UploadInput{Filename: "a.pdf", Title: "  ", Description: "d", Body: strings.NewReader("x"), Size: 1}, ErrTitleRequired},
		{"blank description", UploadInput{Filename: "a.pdf", Title: "t", Body: strings.NewReader("x"), Size: 1}, ErrDescriptionRequired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestApp(t, 0)
			_, err := env.app.UploadBook(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if !IsValidation(err) {
				t.Fatalf("expected %v to be a validation error", err)
			}
			if n := env.bookCount(t); n != 0 {
				t.Fatalf("expected no records, got %d", n)
			}
			if files := env.storedFiles(t); len(files) != 0 {
				t.Fatalf("expected no stored files, got %v", files)
			}
		})
	}
}

func TestUploadBookRejectsStreamOverLimit(t *testing.T) {
	env := newTestApp(t, 10)
	in := upload("long.txt", strings.Repeat("a", 25))
	in.Size = -1
	_, err := env.app.UploadBook(context.Background(), in)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("oversized write should be removed, got %v", files)
	}
	if n := env.bookCount(t); n != 0 {
		t.Fatalf("expected no records, got %d", n)
	}
}

func TestUploadBookAllowListIsCaseInsensitive(t *testing.T) {
	env := newTestApp(t, 0)
	if _, err := env.app.UploadBook(context.Background(), upload("SCROLL.JPEG", "img")); err != nil {
		t.Fatalf("upload: %v", err)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) CreateBook(context.Context, domain.Book) (domain.Book, error) {
	return domain.Book{}, errors.New("database unavailable")
}

func TestUploadBookPersistenceFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	files, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	a, err := New(Config{Store: failingStore{store.NewMemoryStore()}, Files: files})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	_, err = a.UploadBook(context.Background(), upload("tablet.txt", "text"))
	if err == nil || IsValidation(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected orphaned file to be cleaned up, found %d", len(entries))
	}
}

func TestUploadBookCountsPDFPages(t *testing.T) {
	env := newTestApp(t, 0)
	doc := minimalPDF(3)
	book, err := env.app.UploadBook(context.Background(), UploadInput{
		Filename:    "picatrix.pdf",
		Title:       "Picatrix",
		Description: "Astrological magic",
		Body:        bytes.NewReader(doc),
		Size:        int64(len(doc)),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if book.PageCount != 3 {
		t.Fatalf("page count = %d, want 3", book.PageCount)
	}
}

func TestReadBookText(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()
	book, err := env.app.UploadBook(ctx, upload("kybalion.txt", "The All is Mind"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	reading, err := env.app.ReadBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reading.Presentation.IsText || reading.Content != "The All is Mind" {
		t.Fatalf("unexpected reading: %+v", reading)
	}

	if err := os.Remove(filepath.Join(env.dir, book.FileName)); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	reading, err = env.app.ReadBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("read after removal should not fail: %v", err)
	}
	if reading.Content != TextMissingMessage {
		t.Fatalf("content = %q, want fallback", reading.Content)
	}
}

type brokenFiles struct{}

func (brokenFiles) Save(context.Context, string, io.Reader, int64) (int64, error) {
	return 0, errors.New("disk failure")
}
func (brokenFiles) Open(context.Context, string) (*storage.Object, error) {
	return nil, errors.New("disk failure")
}
func (brokenFiles) Delete(context.Context, string) error { return errors.New("disk failure") }

func TestReadBookTextUnreadable(t *testing.T) {
	mem := store.NewMemoryStore()
	book, err := mem.CreateBook(context.Background(), domain.Book{
		Title: "notes", Description: "d", FileName: "notes-1-2.txt", OriginalName: "notes.txt", FileType: ".txt",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := New(Config{Store: mem, Files: brokenFiles{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	reading, err := a.ReadBook(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reading.Content != TextUnreadableMessage {
		t.Fatalf("content = %q, want unreadable fallback", reading.Content)
	}
}

func TestReadBookNotFound(t *testing.T) {
	env := newTestApp(t, 0)
	if _, err := env.app.ReadBook(context.Background(), "missing"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("err = %v, want ErrBookNotFound", err)
	}
}

func TestReadBookSkipsContentForPDF(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()
	book, err := env.app.UploadBook(ctx, upload("grimoire.PDF", "%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	reading, err := env.app.ReadBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if reading.Presentation.Mode() != ModePDF || reading.Content != "" {
		t.Fatalf("unexpected reading: %+v", reading)
	}
}

func TestDeleteBookToleratesMissingFile(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()
	book, err := env.app.UploadBook(ctx, upload("scroll.pdf", "%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := os.Remove(filepath.Join(env.dir, book.FileName)); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	if err := env.app.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := env.store.GetBook(ctx, book.ID); ok {
		t.Fatalf("expected record to be removed")
	}
	if err := env.app.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("deleting an unknown id should be a no-op: %v", err)
	}
}

func TestDeleteBookRemovesFile(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()
	book, err := env.app.UploadBook(ctx, upload("scroll.pdf", "%PDF"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := env.app.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if files := env.storedFiles(t); len(files) != 0 {
		t.Fatalf("expected file to be removed, got %v", files)
	}
}

func TestDeleteBookStorageFailureKeepsRecord(t *testing.T) {
	mem := store.NewMemoryStore()
	book, err := mem.CreateBook(context.Background(), domain.Book{Title: "t", Description: "d", FileName: "t-1-2.pdf"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := New(Config{Store: mem, Files: brokenFiles{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := a.DeleteBook(context.Background(), book.ID); err == nil {
		t.Fatalf("expected storage error")
	}
	if _, ok, _ := mem.GetBook(context.Background(), book.ID); !ok {
		t.Fatalf("record should survive a failed file delete")
	}
}

func TestLibraryOrderAndLegends(t *testing.T) {
	env := newTestApp(t, 0)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"Corpus Hermeticum", "The Book of Thoth, Vol. 1", "Liber AL"} {
		if _, err := env.store.CreateBook(ctx, domain.Book{
			Title:      title,
			FileName:   fmt.Sprintf("b-%d.pdf", i),
			UploadDate: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	lib, err := env.app.Library(ctx)
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	if len(lib.Books) != 3 {
		t.Fatalf("books = %d, want 3", len(lib.Books))
	}
	for i := 1; i < len(lib.Books); i++ {
		if lib.Books[i].UploadDate.After(lib.Books[i-1].UploadDate) {
			t.Fatalf("books not newest first: %v", lib.Books)
		}
	}
	if len(lib.Legends) != len(LegendaryBooks) {
		t.Fatalf("legends = %d, want %d", len(lib.Legends), len(LegendaryBooks))
	}
	for _, legend := range lib.Legends {
		want := legend.Title == "Book of Thoth"
		if legend.IsUploaded != want {
			t.Fatalf("legend %q uploaded = %v, want %v", legend.Title, legend.IsUploaded, want)
		}
	}
}

func TestNewRequiresDatabase(t *testing.T) {
	if _, err := New(Config{UploadDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without database URL")
	}
	a, err := New(Config{UploadDir: t.TempDir(), DatabaseURL: "memory://"})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if a.MaxUploadBytes() != DefaultMaxUploadBytes {
		t.Fatalf("max upload = %d, want default", a.MaxUploadBytes())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPingChecksDatabase(t *testing.T) {
	a, err := New(Config{
		UploadDir:   t.TempDir(),
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "archives.db"),
	})
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	if err := a.Ping(context.Background()); err != nil {
		t.Fatalf("ping open database: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("ping after close should fail")
	}

	mem, err := New(Config{UploadDir: t.TempDir(), DatabaseURL: "memory://"})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if err := mem.Ping(context.Background()); err != nil {
		t.Fatalf("memory store has nothing to ping: %v", err)
	}
}

// minimalPDF builds a structurally valid PDF with the given number of empty pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	buf.WriteString("%PDF-1.4\n")
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		writeObj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
