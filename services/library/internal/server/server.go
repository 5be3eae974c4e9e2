package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"arcanearchives/internal/util"
	"arcanearchives/pkg/storage"
	"arcanearchives/services/library/internal/app"
)

// multipartOverhead is the allowance for form fields and part headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

// RateLimiter bounds uploads per client key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	UploadLimiter  RateLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the library's HTTP pages and file endpoints.
type Server struct {
	app            *app.App
	limiter        RateLimiter
	trustedProxies *util.TrustedProxies
	pages          *pages
	mux            *http.ServeMux
	maxBodyBytes   int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:            cfg.App,
		limiter:        cfg.UploadLimiter,
		trustedProxies: cfg.TrustedProxies,
		pages:          p,
		mux:            http.NewServeMux(),
		maxBodyBytes:   cfg.App.MaxUploadBytes() + multipartOverhead,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("library", util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleStatic(pageHome))
	s.mux.HandleFunc("GET /societies", s.handleStatic(pageSocieties))
	s.mux.HandleFunc("GET /contact", s.handleStatic(pageContact))
	s.mux.HandleFunc("GET /library", s.handleLibrary)
	s.mux.HandleFunc("GET /upload-book", s.handleUploadForm)
	s.mux.HandleFunc("GET /read/{id}", s.handleRead)

	s.mux.HandleFunc("POST /upload/book", s.handleUpload)
	s.mux.HandleFunc("GET /upload/file/{filename}", s.handleServeFile)
	s.mux.HandleFunc("GET /uploads/{filename}", s.handleServeFile)
	s.mux.HandleFunc("POST /upload/delete/{id}", s.handleDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.app.Ping(ctx); err != nil {
		util.LoggerFromContext(r.Context()).Error("health check", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatic(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, name, pageData{Page: name})
	}
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := s.app.Library(r.Context())
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("load library", "err", err)
		lib = app.Library{}
	}
	s.render(w, r, http.StatusOK, pageLibrary, pageData{Page: pageLibrary, Library: lib})
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.render(w, r, http.StatusOK, pageUpload, pageData{
		Page: pageUpload,
		Form: uploadForm{
			Title:    q.Get("title"),
			Author:   q.Get("author"),
			Category: q.Get("category"),
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := util.LoggerFromContext(ctx)
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, util.ClientIP(r, s.trustedProxies))
		if err != nil {
			log.Warn("upload rate limiter unavailable", "err", err)
		} else if !ok {
			s.renderUploadError(w, r, http.StatusTooManyRequests, uploadForm{}, "Too many uploads. Please wait a minute and try again.")
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.renderUploadError(w, r, http.StatusRequestEntityTooLarge, uploadForm{}, tooLargeMessage(s.app.MaxUploadBytes()))
			return
		}
		s.renderUploadError(w, r, http.StatusBadRequest, uploadForm{}, "Invalid upload form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := uploadForm{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		Category:    r.FormValue("category"),
	}
	in := app.UploadInput{
		Title:       form.Title,
		Description: form.Description,
		Author:      form.Author,
		Category:    form.Category,
		Size:        -1,
	}
	file, header, err := r.FormFile("bookFile")
	switch {
	case err == nil:
		defer file.Close()
		in.Filename = header.Filename
		in.Body = file
		in.Size = header.Size
	case errors.Is(err, http.ErrMissingFile):
	default:
		s.renderUploadError(w, r, http.StatusBadRequest, form, "Invalid upload form.")
		return
	}

	if _, err := s.app.UploadBook(ctx, in); err != nil {
		if app.IsValidation(err) {
			s.renderUploadError(w, r, http.StatusBadRequest, form, s.validationMessage(err, in.Filename))
			return
		}
		log.Error("upload book", "err", err)
		s.renderUploadError(w, r, http.StatusInternalServerError, form, "Error uploading book. Please try again.")
		return
	}
	http.Redirect(w, r, "/library", http.StatusFound)
}

func (s *Server) renderUploadError(w http.ResponseWriter, r *http.Request, status int, form uploadForm, msg string) {
	s.render(w, r, status, pageUpload, pageData{Page: pageUpload, Form: form, Error: msg})
}

func (s *Server) validationMessage(err error, filename string) string {
	switch {
	case errors.Is(err, app.ErrFileRequired):
		return "No file selected or file type not allowed"
	case errors.Is(err, app.ErrUnsupportedFileType):
		return fmt.Sprintf("File type %s not allowed. Please upload PDF, EPUB, TXT, DOC, DOCX, or image files.", storage.Ext(filename))
	case errors.Is(err, app.ErrFileTooLarge):
		return tooLargeMessage(s.app.MaxUploadBytes())
	case errors.Is(err, app.ErrTitleRequired):
		return "Please give the book a title."
	case errors.Is(err, app.ErrDescriptionRequired):
		return "Please describe the book."
	default:
		return "Error uploading book. Please try again."
	}
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File too large. The maximum upload size is %s.", humanSize(limit))
}

func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	obj, err := s.app.OpenFile(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		util.LoggerFromContext(r.Context()).Error("open file", "file", name, "err", err)
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}
	defer obj.Close()
	http.ServeContent(w, r, obj.Name, obj.ModTime, obj)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.app.DeleteBook(r.Context(), id); err != nil {
		util.LoggerFromContext(r.Context()).Error("delete book", "id", id, "err", err)
		http.Error(w, "Error deleting book", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/library", http.StatusFound)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	reading, err := s.app.ReadBook(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, app.ErrBookNotFound) {
			http.Error(w, "Book not found in the archives", http.StatusNotFound)
			return
		}
		util.LoggerFromContext(r.Context()).Error("read book", "err", err)
		http.Error(w, "Error loading the forbidden text", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, pageReader, pageData{Page: pageReader, Reading: reading})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
