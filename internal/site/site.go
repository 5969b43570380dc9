// Package site renders the public marketing pages.
package site

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"

	"spbunet/api/internal/store"
	"spbunet/api/internal/svgsafe"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// Source is the read side of the store the pages need.
type Source interface {
	ListRegions(ctx context.Context) ([]store.Region, error)
	ListRegionStats(ctx context.Context) ([]store.RegionStat, error)
	GetSettings(ctx context.Context) (store.Settings, error)
}

type page struct {
	Path  string
	File  string
	Title string
}

var pages = []page{
	{"/", "home.html", "Beranda"},
	{"/sejarah", "sejarah.html", "Sejarah"},
	{"/layanan", "layanan.html", "Layanan"},
	{"/kontak", "kontak.html", "Kontak"},
	{"/peta", "peta.html", "Peta Wilayah"},
}

type Site struct {
	src  Source
	log  logrus.FieldLogger
	tmpl map[string]*template.Template
}

// viewData is what every template receives. Missing data renders as empty
// sections rather than an error page.
type viewData struct {
	Title   string
	Path    string
	Nav     []page
	Total   store.RegionStat
	Regions []store.MapRegion
	MapSVG  template.HTML
}

func New(src Source, log logrus.FieldLogger) *Site {
	tmpl := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		tmpl[p.File] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+p.File))
	}
	return &Site{src: src, log: log, tmpl: tmpl}
}

func (s *Site) Register(r chi.Router) {
	for _, p := range pages {
		p := p
		r.Get(p.Path, func(w http.ResponseWriter, req *http.Request) {
			s.render(w, req, p)
		})
	}
}

func (s *Site) load(ctx context.Context, p page) viewData {
	data := viewData{Title: p.Title, Path: p.Path, Nav: pages}
	if s.src == nil {
		return data
	}

	stats, err := s.src.ListRegionStats(ctx)
	if err != nil {
		s.log.WithError(err).WithField("page", p.Path).Warn("site: region stats unavailable")
	}
	for _, st := range stats {
		if store.IsAllKey(st.RegionKey) {
			data.Total = st
		}
	}

	if p.Path != "/peta" {
		return data
	}
	regions, err := s.src.ListRegions(ctx)
	if err != nil {
		s.log.WithError(err).Warn("site: regions unavailable")
	}
	data.Regions = store.JoinRegionStats(regions, stats)

	settings, err := s.src.GetSettings(ctx)
	if err != nil {
		s.log.WithError(err).Warn("site: settings unavailable")
	}
	// Cleaned on upload too; rows written before that are cleaned here.
	data.MapSVG = template.HTML(svgsafe.Clean(settings.MapSVG))
	return data
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, p page) {
	var buf bytes.Buffer
	if err := s.tmpl[p.File].ExecuteTemplate(&buf, "layout", s.load(r.Context(), p)); err != nil {
		s.log.WithError(err).WithField("page", p.Path).Error("site: render")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
