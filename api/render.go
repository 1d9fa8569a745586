package api

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rpupo63/blogicum/database"
	"github.com/rpupo63/blogicum/forms"
	"github.com/rpupo63/blogicum/models"
	"github.com/rpupo63/blogicum/services"
)

// pageData is handed to every template. Handlers fill the fields their page
// needs; the responder sets the request-scoped ones.
type pageData struct {
	CurrentUser *models.User
	CSRFField   template.HTML
	Path        string

	Page     *database.Page
	Post     *models.Post
	Comments []*models.Comment
	Comment  *models.Comment
	Category *models.Category
	Profile  *models.User
	// IsOwner is set on a profile page viewed by its own user.
	IsOwner bool
	// Restricted marks a post only its author can currently see.
	Restricted bool

	Form        *forms.Form
	CommentForm *forms.Form
	// Deleting switches the post and comment forms to their confirmation view.
	Deleting bool
	Next     string
}

type renderer struct {
	pages map[string]*template.Template
}

// newRenderer parses each page under templates/ together with the base layout
// and the shared includes.
func newRenderer(fsys fs.FS, media services.MediaStore) (*renderer, error) {
	funcs := templateFuncs(media)

	var pages []string
	for _, pattern := range []string{"templates/blog/*.html", "templates/pages/*.html", "templates/registration/*.html"} {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		pages = append(pages, matches...)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("").Funcs(funcs).ParseFS(fsys, "templates/base.html", "templates/includes/*.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[strings.TrimPrefix(page, "templates/")] = t
	}
	return r, nil
}

// render executes the page into a buffer so a failing template never leaves a
// half-written response behind.
func (r *renderer) render(w http.ResponseWriter, status int, name string, data *pageData) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func templateFuncs(media services.MediaStore) template.FuncMap {
	return template.FuncMap{
		"mediaURL": func(key string) string {
			if key == "" || media == nil {
				return ""
			}
			return media.URL(key)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2 January 2006, 15:04")
		},
		"linebreaksbr": func(s string) template.HTML {
			escaped := template.HTMLEscapeString(s)
			return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
		},
		"truncatewords": truncateWords,
		"pageURL": func(n int) string {
			return "?page=" + strconv.Itoa(n)
		},
		"deref": func(id *uint) uint {
			if id == nil {
				return 0
			}
			return *id
		},
	}
}

func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}
