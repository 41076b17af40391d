// Package settings serves the reference data screens: one tab per category
// with create, rename and delete. Every successful change drops the
// configuration cache so the next form sees it.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the settings screen lives.
const Path = "/configuracoes"

const (
	msgCreated = "Item criado com sucesso"
	msgUpdated = "Item atualizado com sucesso"
	msgDeleted = "Item excluído com sucesso"
)

// Store is the backend surface of the settings screen.
type Store interface {
	List(ctx context.Context, cat backend.Category) ([]backend.ConfigItem, error)
	Create(ctx context.Context, cat backend.Category, input backend.ConfigInput) (*backend.MutationResult, error)
	Update(ctx context.Context, cat backend.Category, id int, input backend.ConfigInput) (*backend.MutationResult, error)
	Delete(ctx context.Context, cat backend.Category, id int) (*backend.MutationResult, error)
}

// Handler serves the settings screens.
type Handler struct {
	logger    *slog.Logger
	store     Store
	refdata   *refdata.Cache
	responder *view.Responder
	validator *shared.Validator
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, store Store, cache *refdata.Cache, responder *view.Responder, validator *shared.Validator) *Handler {
	return &Handler{logger: logger, store: store, refdata: cache, responder: responder, validator: validator}
}

// MountRoutes registers settings routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.show)
	r.Post(Path+"/{category}", h.create)
	r.Post(Path+"/{category}/{id}", h.rename)
	r.Get(Path+"/{category}/{id}/delete", h.confirmDelete)
	r.Post(Path+"/{category}/{id}/delete", h.delete)
}

type itemForm struct {
	Nome   string `form:"nome" validate:"required,max=200"`
	PoloID string `form:"polo_id" validate:"omitempty,number"`
}

func parseItemForm(values url.Values) itemForm {
	return itemForm{
		Nome:   strings.TrimSpace(values.Get("nome")),
		PoloID: strings.TrimSpace(values.Get("polo_id")),
	}
}

func (f itemForm) input(cat backend.Category) backend.ConfigInput {
	in := backend.ConfigInput{Nome: f.Nome}
	if hasPolo(cat) {
		in.PoloID = shared.OptionalInt(f.PoloID)
	}
	return in
}

// hasPolo reports whether records of cat belong to a site.
func hasPolo(cat backend.Category) bool {
	return cat.Key == "instalacoes"
}

type tab struct {
	backend.Category
	Active bool
	URL    string
}

type page struct {
	Tabs     []tab
	Category backend.Category
	Items    []backend.ConfigItem
	Failed   bool
	HasPolo  bool
	Polos    []backend.ConfigItem
	Form     itemForm
	Errors   map[string]string
	EditID   int
}

// URLFor returns the settings tab of category key.
func URLFor(key string) string {
	return Path + "?" + url.Values{"categoria": {key}}.Encode()
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	cat, ok := backend.LookupCategory(r.URL.Query().Get("categoria"))
	if !ok {
		cat = backend.Categories[0]
	}
	edit, _ := strconv.Atoi(r.URL.Query().Get("editar"))
	h.render(w, r, http.StatusOK, cat, page{EditID: edit})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, cat backend.Category, p page) {
	p.Category = cat
	p.HasPolo = hasPolo(cat)
	for _, c := range backend.Categories {
		p.Tabs = append(p.Tabs, tab{Category: c, Active: c.Key == cat.Key, URL: URLFor(c.Key)})
	}
	items, err := h.store.List(r.Context(), cat)
	if err != nil {
		p.Failed = true
		items = nil
	}
	p.Items = items
	if p.HasPolo {
		p.Polos = h.refdata.Get(r.Context(), false).Options("polos")
	}
	h.responder.PageStatus(w, r, status, "pages/settings.html", "Configurações", p)
}

func (h *Handler) category(w http.ResponseWriter, r *http.Request) (backend.Category, bool) {
	cat, ok := backend.LookupCategory(chi.URLParam(r, "category"))
	if !ok {
		h.responder.NotFound(w, r)
	}
	return cat, ok
}

func (h *Handler) itemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.responder.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseItemForm(r.PostForm)
	if errs := h.validate(form); errs != nil {
		view.FlashFormInvalid(r)
		h.render(w, r, http.StatusUnprocessableEntity, cat, page{Form: form, Errors: errs})
		return
	}
	res, err := h.store.Create(r.Context(), cat, form.input(cat))
	if err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, cat, page{Form: form})
		return
	}
	h.changed(w, r, cat, res, msgCreated)
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := parseItemForm(r.PostForm)
	if errs := h.validate(form); errs != nil {
		view.FlashFormInvalid(r)
		h.render(w, r, http.StatusUnprocessableEntity, cat, page{EditID: id, Form: form, Errors: errs})
		return
	}
	res, err := h.store.Update(r.Context(), cat, id, form.input(cat))
	if err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, cat, page{EditID: id, Form: form})
		return
	}
	h.changed(w, r, cat, res, msgUpdated)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	h.responder.Confirm(w, r, view.Confirmation{
		Title:   "Excluir item",
		Message: "Tem certeza que deseja excluir este item de " + cat.Title + "?",
		Action:  Path + "/" + cat.Key + "/" + strconv.Itoa(id) + "/delete",
		Return:  URLFor(cat.Key),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	cat, ok := h.category(w, r)
	if !ok {
		return
	}
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	if r.PostFormValue("confirmed") != "true" {
		http.Redirect(w, r, Path+"/"+cat.Key+"/"+strconv.Itoa(id)+"/delete", http.StatusSeeOther)
		return
	}
	res, err := h.store.Delete(r.Context(), cat, id)
	if err != nil {
		http.Redirect(w, r, URLFor(cat.Key), http.StatusSeeOther)
		return
	}
	h.changed(w, r, cat, res, msgDeleted)
}

// changed drops the cached reference data and sends the operator back to the tab.
func (h *Handler) changed(w http.ResponseWriter, r *http.Request, cat backend.Category, res *backend.MutationResult, fallback string) {
	h.refdata.Invalidate()
	msg := fallback
	if res != nil && strings.TrimSpace(res.Message) != "" {
		msg = res.Message
	}
	h.logger.Info("reference data changed", slog.String("category", cat.Key))
	h.responder.Redirect(w, r, URLFor(cat.Key), backend.KindSuccess, msg)
}

func (h *Handler) validate(form itemForm) map[string]string {
	err := h.validator.Struct(form)
	if err == nil {
		return nil
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return map[string]string{"general": err.Error()}
}
