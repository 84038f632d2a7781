// Package render builds the HTML pages of the analysis UI from result
// envelopes. Card generation mirrors the envelope's optional sections: a
// missing section means the card is omitted, a malformed one degrades to an
// inline error inside the card, and the page as a whole never fails.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"similarity-web/internal/models"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Renderer renders the form and results pages from embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent0": func(v float64) int { return int(v*100 + 0.5) },
		"percent1": func(v float64) string { return fmt.Sprintf("%.1f", v*100) },
		"percent2": func(v float64) string { return fmt.Sprintf("%.2f", v*100) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// StaticHandler serves the embedded static assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Alert is a user-facing notice shown at the top of a page.
type Alert struct {
	Message string
	Kind    string // "error", "warning" or "success"
	Field   string // form section to scroll to, "" for none
}

// Badge is the backend status indicator in the page header.
type Badge struct {
	Checked bool
	Healthy bool
}

// FormView is the data behind the upload form page.
type FormView struct {
	Badge    Badge
	Alert    *Alert
	Defaults models.Parameters
}

// RenderForm writes the upload form page.
func (r *Renderer) RenderForm(w io.Writer, view FormView) error {
	if view.Defaults == (models.Parameters{}) {
		view.Defaults = models.DefaultParameters()
	}
	return r.tmpl.ExecuteTemplate(w, "form.html", view)
}

// RenderResults writes the results page. Reaching it means the backend just
// answered, so the header badge reads healthy unless set otherwise.
func (r *Renderer) RenderResults(w io.Writer, view *ResultsView) error {
	if view.Badge == (Badge{}) {
		view.Badge = Badge{Checked: true, Healthy: true}
	}
	return r.tmpl.ExecuteTemplate(w, "results.html", view)
}

// RenderTableError writes the inline fragment shown when a CSV section could
// not be loaded. label names the section in Thai.
func RenderTableError(w io.Writer, label string, err error) {
	fmt.Fprintf(w, `<p class="text-red-600">เกิดข้อผิดพลาดในการโหลด%s: %s</p>`,
		template.HTMLEscapeString(label), template.HTMLEscapeString(err.Error()))
}

// ===== Results view =====

// WorkItem is one analyzed work shown in the page header.
type WorkItem struct {
	Original string
	Custom   string
}

// MatchRow is one ranked match in the per-input or overall tables.
type MatchRow struct {
	Rank       string // medal emoji for the top three, "#N" after
	Top3       bool
	Title      string
	Subtitle   string
	Detail     string
	Genre      string
	Score      float64 // fraction in [0,1]
	ScoreClass string
}

// InputSection is the match table of one input file.
type InputSection struct {
	Title string
	Rows  []MatchRow
}

// GenreCard is one of the top-three genre summary cards.
type GenreCard struct {
	Medal       string
	ColorClass  string
	Genre       string
	MaxPercent  int
	MeanPercent int
}

// RankingView is the decoded overall_ranking content prepared for display.
type RankingView struct {
	ByInput     []InputSection
	GenreCards  []GenreCard
	Rows        []MatchRow
	Info        *models.AnalysisInfo
	DownloadURL string
}

// PlotCard carries one chart's inline payload plus its PNG fallback link.
type PlotCard struct {
	PayloadJSON template.JS
	PNGURL      string
}

// ResultsView is the data behind the results page.
type ResultsView struct {
	// BaseURL is the backend origin used to absolutize artifact links,
	// "" for same-origin deployments.
	BaseURL string
	Badge   Badge
	Alert   *Alert

	SessionID string
	FileCount int
	Works     []WorkItem
	Params    models.Parameters

	Report    string
	ReportURL string

	ComparisonURL string
	MatrixURL     string

	Ranking    *RankingView
	RankingErr string

	Heatmap *PlotCard
	Network *PlotCard
}

// Abs absolutizes a backend-relative artifact link. Absolute URLs and data
// URIs pass through untouched.
func (v *ResultsView) Abs(url string) string {
	if strings.HasPrefix(url, "/") {
		return v.BaseURL + url
	}
	return url
}

var medals = []string{"🥇", "🥈", "🥉"}

var genreCardColors = []string{
	"bg-yellow-50 border-yellow-300 text-yellow-800",
	"bg-gray-50 border-gray-300 text-gray-800",
	"bg-orange-50 border-orange-300 text-orange-800",
}

func rankLabel(i int) (string, bool) {
	if i < len(medals) {
		return medals[i], true
	}
	return fmt.Sprintf("#%d", i+1), false
}

// BuildResultsView turns a normalized envelope into page data. Each card is
// derived independently so one malformed section cannot take down the page.
func BuildResultsView(env *models.Envelope) *ResultsView {
	view := &ResultsView{
		SessionID: env.SessionID,
		FileCount: len(env.ProcessedFiles),
		Params:    env.Parameters,
	}
	if view.Params == (models.Parameters{}) {
		view.Params = models.DefaultParameters()
	}

	for _, original := range env.ProcessedFiles {
		custom := env.FileNameMapping[original]
		if custom == "" {
			custom = original
		}
		view.Works = append(view.Works, WorkItem{Original: original, Custom: custom})
	}

	if s := env.Section(models.KeyReport); s != nil {
		view.Report = s.Text()
		view.ReportURL = s.URL
	}
	if s := env.Section(models.KeyComparisonTable); s != nil {
		view.ComparisonURL = s.URL
	}
	if s := env.Section(models.KeySimilarityMatrix); s != nil {
		view.MatrixURL = s.URL
	}

	if s := env.Section(models.KeyOverallRanking); s != nil && len(s.Content) > 0 {
		rc, err := s.Ranking()
		if err != nil {
			log.Printf("render: ranking content unusable: %v", err)
			view.RankingErr = err.Error()
		} else {
			view.Ranking = buildRankingView(rc, s.URL)
		}
	}

	queue := NewPlotQueue(func(plotType string, payload any) {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Printf("render: encoding %s payload: %v", plotType, err)
			return
		}
		switch plotType {
		case PlotHeatmap:
			if view.Heatmap != nil {
				view.Heatmap.PayloadJSON = template.JS(raw)
			}
		case PlotNetwork:
			if view.Network != nil {
				view.Network.PayloadJSON = template.JS(raw)
			}
		}
	})

	view.Heatmap = buildPlotCard(env.Section(models.KeyHeatmap), PlotHeatmap, queue, func(s *models.Section) (any, error) {
		return s.Heatmap()
	})
	view.Network = buildPlotCard(env.Section(models.KeyNetwork), PlotNetwork, queue, func(s *models.Section) (any, error) {
		return s.Network()
	})
	queue.Ready()

	return view
}

func buildRankingView(rc *models.RankingContent, url string) *RankingView {
	rv := &RankingView{Info: rc.AnalysisInfo, DownloadURL: url}

	for _, input := range rc.AnalysisByInput {
		section := InputSection{Title: input.InputTitle}
		hits := input.Similarities
		if len(hits) > 10 {
			hits = hits[:10]
		}
		for i, hit := range hits {
			section.Rows = append(section.Rows, matchRow(i, hit))
		}
		rv.ByInput = append(rv.ByInput, section)
	}

	for i, genre := range rc.GenreRank {
		if i == 3 {
			break
		}
		rv.GenreCards = append(rv.GenreCards, GenreCard{
			Medal:       medals[i],
			ColorClass:  genreCardColors[i],
			Genre:       orNA(genre.Genre),
			MaxPercent:  int(genre.Max*100 + 0.5),
			MeanPercent: int(genre.Mean*100 + 0.5),
		})
	}

	docs := rc.DBRank
	if len(docs) > 10 {
		docs = docs[:10]
	}
	for i, doc := range docs {
		rv.Rows = append(rv.Rows, docRow(i, doc))
	}

	return rv
}

// matchRow shapes one per-input hit. Works with the three-level corpus layout
// (genre/novel/file) show the novel title; two-level layouts fall back to the
// chapter or file name.
func matchRow(i int, hit models.SimilarityHit) MatchRow {
	row := MatchRow{
		Genre: orNA(hit.Genre),
		Score: hit.Similarity,
	}
	row.Rank, row.Top3 = rankLabel(i)

	if hit.FolderName != "" && hit.FolderName != "N/A" {
		row.Title = "📚 " + hit.FolderName
		row.Subtitle = fmt.Sprintf("%s › Chapter: %s", orNA(hit.Genre), orNA(hit.ChapterName))
	} else {
		name := hit.ChapterName
		if name == "" {
			name = hit.DatabaseFile
		}
		row.Title = "📄 " + orNA(name)
		row.Subtitle = "หมวดหมู่: " + orNA(hit.Genre)
	}
	row.Detail = "File: " + orNA(hit.DatabaseFile)

	switch {
	case hit.Similarity >= 0.7:
		row.ScoreClass = "text-green-600"
	case hit.Similarity >= 0.5:
		row.ScoreClass = "text-yellow-600"
	default:
		row.ScoreClass = "text-gray-600"
	}
	return row
}

func docRow(i int, doc models.DocRank) MatchRow {
	row := MatchRow{
		Genre: orNA(doc.Genre),
		Score: doc.BestSimilarity,
	}
	row.Rank, row.Top3 = rankLabel(i)

	title := doc.NovelTitle
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		title = doc.FolderName
	}
	chapter := doc.ChapterName
	if chapter == "" {
		chapter = doc.FileName
	}
	if chapter == "" {
		chapter = doc.DBDoc
	}

	if title != "" && title != "N/A" && title != doc.Genre {
		row.Title = "📚 " + title
		row.Subtitle = doc.Genre + " › " + chapter
	} else {
		row.Title = "📄 " + chapter
		row.Subtitle = "หมวดหมู่: " + doc.Genre
	}
	row.Detail = "File: " + orNA(doc.DBDoc)

	switch {
	case doc.BestSimilarity >= 0.7:
		row.ScoreClass = "text-green-600"
	case doc.BestSimilarity >= 0.5:
		row.ScoreClass = "text-yellow-600"
	default:
		row.ScoreClass = "text-gray-600"
	}
	return row
}

// buildPlotCard validates a chart section and hands its decoded payload to
// the plot queue, which holds it until card assembly finishes and then
// releases everything in one flush. Sections without usable inline data but
// with an image URL still get a card with the PNG link only.
func buildPlotCard(s *models.Section, plotType string, queue *PlotQueue, decode func(*models.Section) (any, error)) *PlotCard {
	if s == nil {
		return nil
	}

	card := &PlotCard{PNGURL: pngURL(s)}

	queued := false
	if len(s.Data) > 0 {
		payload, err := decode(s)
		if err == nil {
			queue.Enqueue(plotType, payload)
			queued = true
		} else {
			log.Printf("render: chart data unusable: %v", err)
		}
	}

	if !queued && card.PNGURL == "" {
		return nil
	}
	return card
}

// pngURL prefers the artifact URL; legacy envelopes inlined the image bytes.
func pngURL(s *models.Section) string {
	if s.URL != "" {
		return s.URL
	}
	if s.Base64 != "" {
		return "data:image/png;base64," + s.Base64
	}
	return ""
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
