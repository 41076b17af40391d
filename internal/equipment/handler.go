package equipment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the equipment list lives.
const Path = "/equipamentos"

const tableFragment = "partials/equipment_table.html"

// Filters of the equipment list.
var Filters = []listing.FilterSpec{
	{Name: listing.SearchKey, Label: "Buscar equipamentos"},
	{Name: "fabricante", Param: "fabricante_id", Category: "fabricantes", Label: "Fabricante"},
	{Name: "tipo", Param: "tipo_equipamento_id", Category: "tipos_equipamento", Label: "Tipo"},
}

var messages = listing.Messages{
	Created: "Equipamento criado com sucesso",
	Updated: "Equipamento atualizado com sucesso",
	Deleted: "Equipamento excluído com sucesso",
}

// Controller is the list state machine of this section.
type Controller = listing.Controller[backend.Equipment, backend.EquipmentInput]

// Screen is the live-renderable list of this section.
type Screen = listing.Screen[backend.Equipment, backend.EquipmentInput]

// Handler serves the equipment screens.
type Handler struct {
	logger       *slog.Logger
	equipment    *backend.EquipmentClient
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
		equipment:    resources.Equipment,
		certificates: resources.Certificates,
		refdata:      cache,
		responder:    responder,
		validator:    validator,
		settings:     settings,
	}
}

// MountRoutes registers equipment routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.list)
	r.Get(Path+"/new", h.newForm)
	r.Post(Path, h.create)
	r.Get(Path+"/{serial}", h.detail)
	r.Get(Path+"/{serial}/edit", h.editForm)
	r.Post(Path+"/{serial}", h.update)
	r.Get(Path+"/{serial}/delete", h.confirmDelete)
	r.Post(Path+"/{serial}/delete", h.delete)
}

// NewController builds a fresh, uninitialized list controller.
func (h *Handler) NewController() *Controller {
	return listing.New[backend.Equipment, backend.EquipmentInput](h.equipment, h.refdata, listing.Config[backend.EquipmentInput]{
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
	List listing.View[backend.Equipment]
	Live string
}

type formPage struct {
	Form     equipmentForm
	Errors   map[string]string
	Editing  bool
	Return   string
	Action   string
	Snapshot *refdata.Snapshot
}

type detailPage struct {
	Equipment    *backend.Equipment
	Certificates []backend.Certificate
	Return       string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctl := h.NewController()
	ctl.Init(r.Context(), r.URL.Query())
	h.responder.Page(w, r, "pages/equipment_list.html", "Equipamentos", listPage{
		List: ctl.View(Path),
		Live: "/live" + Path,
	})
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formPage{
		Return: listing.ReturnTo(r.URL.Query().Get("return"), Path),
		Action: Path,
	})
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	eq, err := h.equipment.Get(r.Context(), serial)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, formPage{
		Form:    formFromEquipment(eq),
		Editing: true,
		Return:  listing.ReturnTo(r.URL.Query().Get("return"), Path),
		Action:  Path + "/" + url.PathEscape(serial),
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
	serial := chi.URLParam(r, "serial")
	form := parseForm(r.PostForm)
	// the serial is the identity and cannot change on edit
	form.NumeroSerie = serial
	page := formPage{
		Form:    form,
		Editing: true,
		Return:  listing.ReturnTo(r.PostFormValue("return"), Path),
		Action:  Path + "/" + url.PathEscape(serial),
	}
	if !h.validate(w, r, &page) {
		return
	}
	if _, err := h.NewController().Update(r.Context(), serial, form.input()); err != nil {
		h.renderForm(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	http.Redirect(w, r, page.Return, http.StatusSeeOther)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	var (
		eq    *backend.Equipment
		certs []backend.Certificate
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		eq, err = h.equipment.Get(ctx, serial)
		return err
	})
	g.Go(func() error {
		var err error
		// a missing certificate list degrades to an empty table
		certs, err = h.certificates.ListByEquipment(backend.WithNotifier(ctx, backend.Discard), serial)
		if err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("equipment certificates", slog.String("serial", serial), slog.Any("error", err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.responder.Page(w, r, "pages/equipment_detail.html", eq.NomeEquipamento, detailPage{
		Equipment:    eq,
		Certificates: certs,
		Return:       listing.ReturnTo(r.URL.Query().Get("return"), Path),
	})
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	h.responder.Confirm(w, r, view.Confirmation{
		Title:   "Excluir equipamento " + serial,
		Message: "Tem certeza que deseja excluir este equipamento?",
		Action:  Path + "/" + url.PathEscape(serial) + "/delete",
		Return:  listing.ReturnTo(r.URL.Query().Get("return"), Path),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	serial := chi.URLParam(r, "serial")
	back := listing.ReturnTo(r.PostFormValue("return"), Path)
	err := h.NewController().Delete(r.Context(), serial, r.PostFormValue("confirmed") == "true")
	if errors.Is(err, shared.ErrNotConfirmed) {
		http.Redirect(w, r, Path+"/"+url.PathEscape(serial)+"/delete?"+url.Values{"return": {back}}.Encode(), http.StatusSeeOther)
		return
	}
	// failures were already reported by the backend client
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, page *formPage) bool {
	if err := h.validator.Struct(page.Form); err != nil {
		page.Errors = shared.FieldErrors(err)
		if page.Errors == nil {
			page.Errors = map[string]string{"general": err.Error()}
		}
		view.FlashFormInvalid(r)
		h.renderForm(w, r, http.StatusUnprocessableEntity, *page)
		return false
	}
	return true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	page.Snapshot = h.refdata.Get(r.Context(), false)
	title := "Novo Equipamento"
	if page.Editing {
		title = "Editar Equipamento"
	}
	h.responder.PageStatus(w, r, status, "pages/equipment_form.html", title, page)
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsStatus(err, http.StatusNotFound) {
		h.responder.NotFound(w, r)
		return
	}
	http.Redirect(w, r, Path, http.StatusSeeOther)
}
