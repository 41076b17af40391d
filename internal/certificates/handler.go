package certificates

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the certificate list lives.
const Path = "/certificados"

const tableFragment = "partials/certificates_table.html"

// Filters of the certificate list.
var Filters = []listing.FilterSpec{
	{Name: listing.SearchKey, Label: "Buscar certificados"},
	{Name: "numero_serie", Label: "Número de série"},
	{Name: "status", Param: "status_id", Category: "status", Label: "Status"},
}

var messages = listing.Messages{
	Created: "Certificado criado com sucesso",
	Updated: "Certificado atualizado com sucesso",
	Deleted: "Certificado excluído com sucesso",
}

// Controller is the list state machine of this section.
type Controller = listing.Controller[backend.Certificate, backend.CertificateInput]

// Screen is the live-renderable list of this section.
type Screen = listing.Screen[backend.Certificate, backend.CertificateInput]

// Handler serves the certificate screens.
type Handler struct {
	logger       *slog.Logger
	certificates *backend.CertificatesClient
	refdata      *refdata.Cache
	responder    *view.Responder
	validator    *shared.Validator
	settings     listing.Settings
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, resources *backend.Resources, cache *refdata.Cache, responder *view.Responder, validator *shared.Validator, settings listing.Settings) *Handler {
	return &Handler{
		logger:       logger,
		certificates: resources.Certificates,
		refdata:      cache,
		responder:    responder,
		validator:    validator,
		settings:     settings,
	}
}

// MountRoutes registers certificate routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.list)
	r.Get(Path+"/new", h.newForm)
	r.Post(Path, h.create)
	r.Get(Path+"/{id}", h.detail)
	r.Get(Path+"/{id}/edit", h.editForm)
	r.Post(Path+"/{id}", h.update)
	r.Get(Path+"/{id}/delete", h.confirmDelete)
	r.Post(Path+"/{id}/delete", h.delete)
}

// NewController builds a fresh, uninitialized list controller.
func (h *Handler) NewController() *Controller {
	return listing.New[backend.Certificate, backend.CertificateInput](h.certificates, h.refdata, listing.Config[backend.CertificateInput]{
		Filters:  Filters,
		PerPage:  h.settings.PerPage,
		Debounce: h.settings.Debounce,
		Messages: messages,
		Logger:   h.logger,
	})
}

// NewScreen builds a list controller bound to the table fragment.
func (h *Handler) NewScreen() *Screen {
	return listing.NewScreen(h.NewController(), Path, tableFragment, h.responder.Engine())
}

// SearchLocation is where a global search for term lands.
func SearchLocation(term string) string {
	return Path + "?" + url.Values{listing.SearchKey: {term}}.Encode()
}

type listPage struct {
	List listing.View[backend.Certificate]
	Live string
}

type formPage struct {
	Form     certificateForm
	Errors   map[string]string
	Editing  bool
	Return   string
	Action   string
	Snapshot *refdata.Snapshot
}

type detailPage struct {
	Certificate *backend.Certificate
	Return      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctl := h.NewController()
	ctl.Init(r.Context(), r.URL.Query())
	h.responder.Page(w, r, "pages/certificates_list.html", "Certificados", listPage{
		List: ctl.View(Path),
		Live: "/live" + Path,
	})
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formPage{
		Form:   certificateForm{NumeroSerieEquipamento: r.URL.Query().Get("equipamento")},
		Return: listing.ReturnTo(r.URL.Query().Get("return"), Path),
		Action: Path,
	})
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cert, err := h.certificates.Get(r.Context(), id)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, formPage{
		Form:    formFromCertificate(cert),
		Editing: true,
		Return:  listing.ReturnTo(r.URL.Query().Get("return"), Path),
		Action:  Path + "/" + url.PathEscape(id),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseForm(r.PostForm)
	page := formPage{Form: form, Return: listing.ReturnTo(r.PostFormValue("return"), Path), Action: Path}
	if !h.validate(w, r, &page) {
		return
	}
	if _, err := h.NewController().Create(r.Context(), form.input()); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	http.Redirect(w, r, page.Return, http.StatusSeeOther)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	form := parseForm(r.PostForm)
	page := formPage{
		Form:    form,
		Editing: true,
		Return:  listing.ReturnTo(r.PostFormValue("return"), Path),
		Action:  Path + "/" + url.PathEscape(id),
	}
	if !h.validate(w, r, &page) {
		return
	}
	if _, err := h.NewController().Update(r.Context(), id, form.input()); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	http.Redirect(w, r, page.Return, http.StatusSeeOther)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	cert, err := h.certificates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.responder.Page(w, r, "pages/certificates_detail.html", "Certificado "+cert.NumeroCertificado, detailPage{
		Certificate: cert,
		Return:      listing.ReturnTo(r.URL.Query().Get("return"), Path),
	})
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.responder.Confirm(w, r, view.Confirmation{
		Title:   "Excluir certificado",
		Message: "Tem certeza que deseja excluir este certificado?",
		Action:  Path + "/" + url.PathEscape(id) + "/delete",
		Return:  listing.ReturnTo(r.URL.Query().Get("return"), Path),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	back := listing.ReturnTo(r.PostFormValue("return"), Path)
	err := h.NewController().Delete(r.Context(), id, r.PostFormValue("confirmed") == "true")
	if errors.Is(err, shared.ErrNotConfirmed) {
		http.Redirect(w, r, Path+"/"+url.PathEscape(id)+"/delete?"+url.Values{"return": {back}}.Encode(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, page *formPage) bool {
	err := h.validator.Struct(page.Form)
	if err == nil {
		return true
	}
	page.Errors = shared.FieldErrors(err)
	if page.Errors == nil {
		page.Errors = map[string]string{"general": err.Error()}
	}
	view.FlashFormInvalid(r)
	h.renderForm(w, r, http.StatusUnprocessableEntity, *page)
	return false
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	page.Snapshot = h.refdata.Get(r.Context(), false)
	title := "Novo Certificado"
	if page.Editing {
		title = "Editar Certificado"
	}
	h.responder.PageStatus(w, r, status, "pages/certificates_form.html", title, page)
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsStatus(err, http.StatusNotFound) {
		h.responder.NotFound(w, r)
		return
	}
	http.Redirect(w, r, Path, http.StatusSeeOther)
}
