package view

import (
	"log/slog"
	"net/http"

	"github.com/equip-manager/equip-console/internal/shared"
)

// ChromeFunc builds the layout state for a request.
type ChromeFunc func(r *http.Request) Chrome

// Responder renders full pages with the shared layout data filled in.
type Responder struct {
	engine *Engine
	csrf   *shared.CSRFManager
	chrome ChromeFunc
	logger *slog.Logger
}

// NewResponder constructs a Responder. chrome may be nil.
func NewResponder(engine *Engine, csrf *shared.CSRFManager, chrome ChromeFunc, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{engine: engine, csrf: csrf, chrome: chrome, logger: logger}
}

// Engine exposes the template engine for fragment rendering.
func (rs *Responder) Engine() *Engine { return rs.engine }

// Page renders template name inside the layout with status 200.
func (rs *Responder) Page(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	rs.PageStatus(w, r, http.StatusOK, name, title, data)
}

// PageStatus renders template name inside the layout with an explicit status.
func (rs *Responder) PageStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token := ""
	if rs.csrf != nil {
		var err error
		if token, err = rs.csrf.EnsureToken(r.Context(), sess); err != nil {
			rs.logger.Warn("csrf token", slog.Any("error", err))
		}
	}
	td := TemplateData{
		Title:       title,
		CSRFToken:   token,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if rs.chrome != nil {
		td.Chrome = rs.chrome(r)
	}
	// flashes are popped last so notifications raised while building chrome are shown
	if sess != nil {
		td.Flashes = sess.PopFlashes()
	}
	if err := rs.engine.RenderStatus(w, status, name, td); err != nil {
		rs.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Redirect queues a flash, when message is set, and redirects with 303.
func (rs *Responder) Redirect(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if message != "" {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
		}
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// NotFound renders the not-found page.
func (rs *Responder) NotFound(w http.ResponseWriter, r *http.Request) {
	rs.PageStatus(w, r, http.StatusNotFound, "pages/not_found.html", "Não encontrado", nil)
}

// Confirmation is the data of the delete confirmation page, shown when a
// delete arrives without the confirmation flag.
type Confirmation struct {
	Title   string
	Message string
	Action  string
	Return  string
}

// Confirm renders the confirmation page.
func (rs *Responder) Confirm(w http.ResponseWriter, r *http.Request, c Confirmation) {
	rs.Page(w, r, "pages/confirm_delete.html", c.Title, c)
}

// FormInvalidMessage is flashed when local validation rejects a form.
const FormInvalidMessage = "Por favor, corrija os erros no formulário"

// FlashFormInvalid queues FormInvalidMessage.
func FlashFormInvalid(r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: FormInvalidMessage})
	}
}
