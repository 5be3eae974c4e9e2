package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"arcanearchives/internal/util"
	"arcanearchives/pkg/domain"
	"arcanearchives/services/library/internal/app"
)

const (
	pageHome      = "home"
	pageLibrary   = "library"
	pageSocieties = "societies"
	pageContact   = "contact"
	pageUpload    = "upload"
	pageReader    = "reader"
)

//go:embed templates/*.html
var templateFS embed.FS

type uploadForm struct {
	Title       string
	Description string
	Author      string
	Category    string
}

// pageData is the single view model shared by every template. Each page
// reads only the fields it needs.
type pageData struct {
	Page    string
	Year    int
	Error   string
	Form    uploadForm
	Library app.Library
	Reading app.Reading
}

type pages struct {
	byName map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"categories": func() []string {
		out := make([]string, 0, len(domain.Categories))
		for _, c := range domain.Categories {
			out = append(out, string(c))
		}
		return out
	},
	"fileURL": func(name string) string {
		return "/upload/file/" + url.PathEscape(name)
	},
	"prefillURL": func(l domain.Legend) string {
		q := url.Values{}
		q.Set("title", l.Title)
		q.Set("author", l.Author)
		q.Set("category", string(l.Category))
		return "/upload-book?" + q.Encode()
	},
	"humanSize": humanSize,
	"date": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template)}
	for _, name := range []string{pageHome, pageLibrary, pageSocieties, pageContact, pageUpload, pageReader} {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.byName[name] = tmpl
	}
	return p, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl, ok := s.pages.byName[name]
	if !ok {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	data.Year = time.Now().Year()
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		util.LoggerFromContext(r.Context()).Error("render page", "page", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
