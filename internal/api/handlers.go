package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"similarity-web/internal/backend"
	"similarity-web/internal/csvtable"
	"similarity-web/internal/models"
	"similarity-web/internal/render"
	"similarity-web/internal/state"
	"similarity-web/internal/upload"
)

// maxFormMemory is the in-memory threshold for multipart parsing; larger
// bodies spill to temp files.
const maxFormMemory = 32 << 20

type Handler struct {
	Backend  *backend.Client
	State    *state.SessionState
	Renderer *render.Renderer
}

func NewHandler(client *backend.Client, st *state.SessionState, renderer *render.Renderer) *Handler {
	return &Handler{
		Backend:  client,
		State:    st,
		Renderer: renderer,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Handle("/static/*", render.StaticHandler())

	r.Post("/api/analyze", h.Analyze)
	r.Get("/fragments/table/{key}", h.TableFragment)
	r.Get("/api/download", h.Download)
	r.Get("/api/health", h.Health)
	r.Post("/api/reset", h.Reset)
}

// ============================================================================
// Pages
// ============================================================================

// Index shows the stored results when an analysis has completed, else the
// upload form with a live backend status badge.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if env := h.State.Results(); env != nil {
		h.renderResults(w, env)
		return
	}
	h.renderForm(w, r.Context(), nil)
}

func (h *Handler) renderForm(w http.ResponseWriter, ctx context.Context, alert *render.Alert) {
	_, err := h.Backend.Health(ctx)
	view := render.FormView{
		Badge: render.Badge{Checked: true, Healthy: err == nil},
		Alert: alert,
	}
	if rerr := h.Renderer.RenderForm(w, view); rerr != nil {
		log.Printf("api: rendering form: %v", rerr)
	}
}

func (h *Handler) renderResults(w http.ResponseWriter, env *models.Envelope) {
	h.renderResultsWith(w, env, nil)
}

func (h *Handler) renderResultsWith(w http.ResponseWriter, env *models.Envelope, alert *render.Alert) {
	view := render.BuildResultsView(env)
	view.BaseURL = h.Backend.BaseURL()
	view.Alert = alert
	if err := h.Renderer.RenderResults(w, view); err != nil {
		log.Printf("api: rendering results: %v", err)
	}
}

// ============================================================================
// Analyze
// ============================================================================

// Analyze validates the submitted form, forwards it to the analysis backend
// and renders the results page. Validation and backend failures re-render the
// form with a Thai alert; the busy flag is released on every exit path.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if !h.State.BeginAnalysis() {
		h.renderForm(w, r.Context(), &render.Alert{
			Kind:    "warning",
			Message: "การวิเคราะห์กำลังดำเนินการอยู่ กรุณารอสักครู่",
		})
		return
	}
	defer h.State.EndAnalysis()

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.renderForm(w, r.Context(), &render.Alert{Kind: "error", Message: "ข้อมูลที่ส่งมาไม่ถูกต้อง"})
		return
	}

	files, headers := collectInputFiles(r.MultipartForm)
	textInput := r.FormValue("text_input")

	var archive *upload.FileDescriptor
	var archiveHeader *multipart.FileHeader
	if fhs := r.MultipartForm.File[upload.FieldArchive]; len(fhs) > 0 {
		archiveHeader = fhs[0]
		archive = &upload.FileDescriptor{
			Name:        archiveHeader.Filename,
			Size:        archiveHeader.Size,
			ContentType: archiveHeader.Header.Get("Content-Type"),
		}
	}

	if err := upload.ValidateForm(files, textInput, archive); err != nil {
		alert := &render.Alert{Kind: "error", Message: err.Error()}
		var fe *upload.FormError
		if errors.As(err, &fe) {
			alert.Field = fe.Field
		}
		h.renderForm(w, r.Context(), alert)
		return
	}

	req := backend.AnalyzeRequest{
		TextInput:  strings.TrimSpace(textInput),
		NovelNames: r.FormValue("novel_names"),
		Parameters: parseParameters(r),
		Progress:   logProgress(),
	}

	for i, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			log.Printf("api: reading %s: %v", files[i].Name, err)
			h.renderForm(w, r.Context(), &render.Alert{Kind: "error", Message: "เกิดข้อผิดพลาดในการวิเคราะห์"})
			return
		}
		req.Files = append(req.Files, backend.FilePart{Name: fh.Filename, Content: content})
	}

	archiveContent, err := readPart(archiveHeader)
	if err != nil {
		log.Printf("api: reading archive: %v", err)
		h.renderForm(w, r.Context(), &render.Alert{Kind: "error", Message: "เกิดข้อผิดพลาดในการวิเคราะห์"})
		return
	}
	req.Archive = backend.FilePart{Name: archiveHeader.Filename, Content: archiveContent}

	env, err := h.Backend.Analyze(r.Context(), req)
	if err != nil {
		log.Printf("api: analyze failed: %v", err)
		h.renderForm(w, r.Context(), &render.Alert{Kind: "error", Message: backend.MessageFor(err)})
		return
	}

	env.Normalize()
	h.State.SetResults(env)
	h.renderResults(w, env)
}

// collectInputFiles merges the plain file picker and the folder picker into
// one filtered selection, preferring the folder when both were used.
func collectInputFiles(form *multipart.Form) ([]upload.FileDescriptor, []*multipart.FileHeader) {
	build := func(fhs []*multipart.FileHeader, folder bool) ([]upload.FileDescriptor, []*multipart.FileHeader) {
		descs := make([]upload.FileDescriptor, 0, len(fhs))
		for _, fh := range fhs {
			d := upload.FileDescriptor{
				Name:        fh.Filename,
				Size:        fh.Size,
				ContentType: fh.Header.Get("Content-Type"),
			}
			if folder {
				d.RelPath = fh.Filename
			}
			descs = append(descs, d)
		}
		var sel upload.Selection
		if folder {
			sel = upload.SelectFolder(descs)
		} else {
			sel = upload.SelectFiles(descs)
		}
		for _, warning := range sel.Warnings {
			log.Printf("api: %s", warning)
		}
		if name := sel.FolderName(); name != "" {
			log.Printf("api: analyzing folder %q (%d files)", name, len(sel.Files))
		}

		// Selection filters and truncates but never reorders, so the kept
		// headers are recovered by walking both lists in lockstep. Matching
		// positionally keeps same-named files distinct.
		kept := make([]*multipart.FileHeader, 0, len(sel.Files))
		next := 0
		for i := range descs {
			if next == len(sel.Files) {
				break
			}
			if descs[i].Name == sel.Files[next].Name && descs[i].Size == sel.Files[next].Size {
				kept = append(kept, fhs[i])
				next++
			}
		}
		return sel.Files, kept
	}

	if fhs := form.File["input_folder"]; len(fhs) > 0 {
		if files, kept := build(fhs, true); len(files) > 0 {
			return files, kept
		}
	}
	return build(form.File[upload.FieldInputFiles], false)
}

func parseParameters(r *http.Request) models.Parameters {
	params := models.DefaultParameters()
	if v, err := strconv.Atoi(r.FormValue("k_neighbors")); err == nil && v > 0 {
		params.KNeighbors = v
	}
	if v, err := strconv.ParseFloat(r.FormValue("dup_threshold"), 64); err == nil && v > 0 && v <= 1 {
		params.DupThreshold = v
	}
	if v, err := strconv.ParseFloat(r.FormValue("similar_threshold"), 64); err == nil && v > 0 && v <= 1 {
		params.SimilarThreshold = v
	}
	return params
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// logProgress reports upload milestones at quarter steps.
func logProgress() backend.ProgressFunc {
	last := -1
	return func(percent int, known bool) {
		if !known {
			log.Printf("api: uploading to backend (size unknown)")
			return
		}
		if step := percent / 25; step > last {
			last = step
			log.Printf("api: upload %d%%", percent)
		}
	}
}

// ============================================================================
// CSV table fragments
// ============================================================================

var tableSections = map[string]struct {
	key   string
	label string
	none  string
}{
	"comparison_table": {
		key:   models.KeyComparisonTable,
		label: "ตารางเปรียบเทียบ",
		none:  "ไม่พบข้อมูลตารางเปรียบเทียบ (No URL)",
	},
	"similarity_matrix": {
		key:   models.KeySimilarityMatrix,
		label: "เมทริกซ์",
		none:  "ไม่พบข้อมูลเมทริกซ์ความคล้ายคลึง (No URL)",
	},
}

// TableFragment fetches a result CSV from the backend and returns it as an
// HTML table fragment. Failures stay inside the fragment: the caller swapped
// a placeholder div and always gets displayable HTML back.
func (h *Handler) TableFragment(w http.ResponseWriter, r *http.Request) {
	section, ok := tableSections[chi.URLParam(r, "key")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	url := h.State.SectionURL(section.key)
	if url == "" {
		fmt.Fprintf(w, `<p class="text-gray-600">%s</p>`, section.none)
		return
	}

	csvText, err := h.Backend.FetchCSV(r.Context(), url)
	if err != nil {
		log.Printf("api: loading %s: %v", section.key, err)
		render.RenderTableError(w, section.label, err)
		return
	}

	io.WriteString(w, string(csvtable.ParseTable(csvText)))
}

// ============================================================================
// Download
// ============================================================================

// Download streams the backend's result archive for the stored session.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	sessionID := h.State.SessionID()
	if sessionID == "" {
		h.renderForm(w, r.Context(), &render.Alert{Kind: "error", Message: "ไม่มีผลลัพธ์สำหรับดาวน์โหลด"})
		return
	}

	body, filename, err := h.Backend.Download(r.Context(), sessionID)
	if err != nil {
		log.Printf("api: download failed: %v", err)
		message := downloadErrorMessage(err)
		if env := h.State.Results(); env != nil {
			h.renderResultsWith(w, env, &render.Alert{Kind: "error", Message: message})
			return
		}
		http.Error(w, message, http.StatusBadGateway)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("api: streaming download: %v", err)
	}
}

func downloadErrorMessage(err error) string {
	var se *backend.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return "ไม่พบไฟล์ผลลัพธ์บนเซิร์ฟเวอร์ (404)"
	}
	if se == nil {
		return "ไม่สามารถเชื่อมต่อเพื่อดาวน์โหลดไฟล์"
	}
	return "เกิดข้อผิดพลาดในการดาวน์โหลด"
}

// ============================================================================
// Health
// ============================================================================

// Health proxies the backend health endpoint. An unreachable backend answers
// 503 with a stable degraded payload instead of an opaque error.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	raw, err := h.Backend.Health(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "backend_unavailable",
			"message": "Backend service is not available",
		})
		return
	}
	w.Write(raw)
}

// ============================================================================
// Reset
// ============================================================================

// Reset discards the stored results and returns to a fresh form.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.State.Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
