// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package fileserver implements an http.Handler that serves a directory tree
// for local development.
//
// Files are served with a MIME type inferred from their extension and with
// support for range requests. A directory is served by its index.html (or
// index.htm) file when it has one, and by an HTML listing of its contents
// otherwise. Directory paths without a trailing slash are redirected to the
// path with one, so relative links inside the served pages resolve.
package fileserver

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"go.astrophena.name/xrayserve/internal/web"
)

// indexFiles are served in place of a directory listing, in order of
// preference.
var indexFiles = []string{"index.html", "index.htm"}

// Handler serves files from a file system.
type Handler struct {
	fsys    fs.FS
	noCache bool
}

// Option configures a [Handler].
type Option func(*Handler)

// NoCache makes the handler ask browsers to revalidate every response, so a
// reload always picks up edited files.
func NoCache(enabled bool) Option {
	return func(h *Handler) { h.noCache = enabled }
}

// New returns a [Handler] serving fsys.
func New(fsys fs.FS, opts ...Option) *Handler {
	h := &Handler{fsys: fsys}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements the [http.Handler] interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Error responses must not be cached either.
	if h.noCache {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		web.RespondError(w, r, web.ErrMethodNotAllowed)
		return
	}

	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
	}
	name := strings.TrimPrefix(path.Clean(upath), "/")
	if name == "" {
		name = "."
	}

	fi, err := fs.Stat(h.fsys, name)
	if err != nil {
		h.statError(w, r, name, err)
		return
	}

	if !fi.IsDir() {
		// "/app.js/" names a directory that doesn't exist.
		if strings.HasSuffix(upath, "/") {
			web.RespondError(w, r, fmt.Errorf("%s is not a directory: %w", upath, web.ErrNotFound))
			return
		}
		h.serveFile(w, r, name, fi)
		return
	}

	if !strings.HasSuffix(upath, "/") {
		target := &url.URL{Path: upath + "/", RawQuery: r.URL.RawQuery}
		http.Redirect(w, r, target.String(), http.StatusMovedPermanently)
		return
	}

	for _, index := range indexFiles {
		p := path.Join(name, index)
		if ifi, err := fs.Stat(h.fsys, p); err == nil && !ifi.IsDir() {
			h.serveFile(w, r, p, ifi)
			return
		}
	}

	h.serveListing(w, r, name, upath)
}

// serveFile leaves content type sniffing, conditional and range requests to
// http.ServeContent.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string, fi fs.FileInfo) {
	f, err := h.fsys.Open(name)
	if err != nil {
		h.statError(w, r, name, err)
		return
	}
	defer f.Close()

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(f)
		if err != nil {
			web.RespondError(w, r, fmt.Errorf("reading %s: %w", name, err))
			return
		}
		rs = bytes.NewReader(b)
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), rs)
}

func (h *Handler) statError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		web.RespondError(w, r, fmt.Errorf("%s: %w", name, web.ErrNotFound))
	case errors.Is(err, fs.ErrPermission):
		web.RespondError(w, r, fmt.Errorf("%s: %w", name, web.ErrForbidden))
	default:
		web.RespondError(w, r, fmt.Errorf("stat %s: %w", name, err))
	}
}

var (
	//go:embed listing.html
	listingTemplateStr string
	listingTemplate    = template.Must(template.New("listing").Parse(listingTemplateStr))
)

type listing struct {
	Path    string
	CSS     string
	Entries []entry
}

type entry struct {
	Name       string
	URL        string
	IsDir      bool
	Size       string
	ModTime    string
	ModTimeRFC string
}

func (h *Handler) serveListing(w http.ResponseWriter, r *http.Request, name, upath string) {
	des, err := fs.ReadDir(h.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			web.RespondError(w, r, fmt.Errorf("listing %s: %w", upath, web.ErrForbidden))
			return
		}
		web.RespondError(w, r, fmt.Errorf("listing %s: %w", upath, err))
		return
	}

	slices.SortFunc(des, func(a, b fs.DirEntry) int {
		if a.IsDir() != b.IsDir() {
			if a.IsDir() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})

	l := listing{
		Path: upath,
		CSS:  web.StaticURL("static/css/main.css"),
	}
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		e := entry{
			Name:       de.Name(),
			IsDir:      de.IsDir(),
			Size:       humanize.Bytes(uint64(info.Size())),
			ModTime:    humanize.Time(info.ModTime()),
			ModTimeRFC: info.ModTime().Format(time.RFC3339),
		}
		if e.IsDir {
			e.Name += "/"
		}
		// url.URL escapes the name and guards against names like "a:b".
		e.URL = (&url.URL{Path: e.Name}).String()
		l.Entries = append(l.Entries, e)
	}

	var buf bytes.Buffer
	if err := listingTemplate.Execute(&buf, l); err != nil {
		web.RespondError(w, r, fmt.Errorf("rendering listing: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	buf.WriteTo(w)
}
