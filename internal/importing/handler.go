// Package importing serves spreadsheet import and export. Uploads are
// forwarded to the backend untouched; downloads are redirects to the backend
// so the browser streams the file directly.
package importing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the import screen lives.
const Path = "/importacao"

// MaxUpload bounds the spreadsheet size accepted from the browser.
const MaxUpload = 10 << 20

// MaxErrors is how many row errors the result summary lists.
const MaxErrors = 10

const (
	msgNoFile      = "Nenhum arquivo selecionado"
	msgBadFormat   = "Formato de arquivo não suportado. Use .xlsx ou .xls"
	msgTooLarge    = "Arquivo muito grande"
	msgImportFinal = "Importação concluída"
)

// Importer is the backend surface of the import screen.
type Importer interface {
	Import(ctx context.Context, dataset backend.Dataset, filename string, content io.Reader) (*backend.ImportResult, error)
	ExportURL(dataset backend.Dataset) string
	TemplateURL(dataset backend.Dataset) string
}

// Handler serves the import and export screens.
type Handler struct {
	logger    *slog.Logger
	importer  Importer
	responder *view.Responder
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler. Uploads and downloads share a limit of
// perMinute requests per session.
func NewHandler(logger *slog.Logger, importer Importer, responder *view.Responder, perMinute int) *Handler {
	if perMinute <= 0 {
		perMinute = 10
	}
	limiter := httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			return "session:" + sess.ID, nil
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{logger: logger, importer: importer, responder: responder, rateLimit: limiter}
}

// MountRoutes registers import routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.show)
	r.Group(func(limited chi.Router) {
		limited.Use(h.rateLimit)
		limited.Post(Path+"/{dataset}", h.upload)
		limited.Get(Path+"/exportar/{dataset}", h.export)
		limited.Get(Path+"/template/{dataset}", h.template)
	})
}

type datasetView struct {
	Dataset  backend.Dataset
	Title    string
	Action   string
	Export   string
	Template string
}

// Summary is the outcome of one upload as shown to the operator.
type Summary struct {
	Dataset  backend.Dataset
	Message  string
	Imported int
	Failed   int
	Errors   []string
	// More counts row errors beyond the listed ones.
	More int
}

type page struct {
	Datasets []datasetView
	Result   *Summary
	Error    string
}

// Summarize trims a backend result to what the result panel shows.
func Summarize(dataset backend.Dataset, res *backend.ImportResult) *Summary {
	if res == nil {
		return nil
	}
	s := &Summary{
		Dataset:  dataset,
		Message:  strings.TrimSpace(res.Message),
		Imported: res.Imported(),
		Failed:   res.Failed(),
	}
	if s.Message == "" {
		s.Message = msgImportFinal
	}
	errs := res.Erros
	if len(errs) > MaxErrors {
		s.More = len(errs) - MaxErrors
		errs = errs[:MaxErrors]
	}
	s.Errors = append([]string(nil), errs...)
	return s
}

func datasets() []datasetView {
	return []datasetView{
		describe(backend.DatasetEquipment, "Equipamentos"),
		describe(backend.DatasetPoints, "Pontos de Medição"),
	}
}

func describe(d backend.Dataset, title string) datasetView {
	return datasetView{
		Dataset:  d,
		Title:    title,
		Action:   Path + "/" + string(d),
		Export:   Path + "/exportar/" + string(d),
		Template: Path + "/template/" + string(d),
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, page{})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	p.Datasets = datasets()
	h.responder.PageStatus(w, r, status, "pages/import.html", "Importação/Exportação", p)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	dataset, ok := backend.ParseDataset(chi.URLParam(r, "dataset"))
	if !ok {
		h.responder.NotFound(w, r)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, r, msgTooLarge)
			return
		}
		h.reject(w, r, msgNoFile)
		return
	}
	defer func() {
		_ = file.Close()
	}()
	if header.Size > MaxUpload {
		h.reject(w, r, msgTooLarge)
		return
	}
	if !Supported(header.Filename) {
		h.reject(w, r, msgBadFormat)
		return
	}

	res, err := h.importer.Import(r.Context(), dataset, filepath.Base(header.Filename), file)
	if err != nil {
		// the client already queued the failure notification
		h.render(w, r, http.StatusBadGateway, page{})
		return
	}
	summary := Summarize(dataset, res)
	h.logger.Info("spreadsheet imported",
		slog.String("dataset", string(dataset)),
		slog.Int("imported", summary.Imported),
		slog.Int("failed", summary.Failed))
	kind := backend.KindSuccess
	if summary.Failed > 0 {
		kind = backend.KindWarning
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: summary.Message})
	}
	h.render(w, r, http.StatusOK, page{Result: summary})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, msg string) {
	h.render(w, r, http.StatusBadRequest, page{Error: msg})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	dataset, ok := backend.ParseDataset(chi.URLParam(r, "dataset"))
	if !ok {
		h.responder.NotFound(w, r)
		return
	}
	http.Redirect(w, r, h.importer.ExportURL(dataset), http.StatusFound)
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	dataset, ok := backend.ParseDataset(chi.URLParam(r, "dataset"))
	if !ok {
		h.responder.NotFound(w, r)
		return
	}
	http.Redirect(w, r, h.importer.TemplateURL(dataset), http.StatusFound)
}

// Supported reports whether filename looks like a spreadsheet the backend reads.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}
