package points

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/calibration"
	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the measurement point list lives.
const Path = "/pontos-medicao"

const tableFragment = "partials/points_table.html"

// Filters of the measurement point list.
var Filters = []listing.FilterSpec{
	{Name: listing.SearchKey, Label: "Buscar pontos de medição"},
	{Name: "polo", Param: "polo_id", Category: "polos", Label: "Polo"},
	{Name: "classificacao", Param: "classificacao_id", Category: "classificacoes_ponto_medicao", Label: "Classificação"},
	{Name: "vencimento_proximo", Label: "Vencimento", Choices: []listing.Choice{
		{Value: "true", Label: "Próximos do vencimento"},
	}},
}

var messages = listing.Messages{
	Created: "Ponto de medição criado com sucesso",
	Updated: "Ponto de medição atualizado com sucesso",
	Deleted: "Ponto de medição excluído com sucesso",
}

// Controller is the list state machine of this section.
type Controller = listing.Controller[backend.MeasurementPoint, backend.MeasurementPointInput]

// Screen is the live-renderable list of this section.
type Screen = listing.Screen[backend.MeasurementPoint, backend.MeasurementPointInput]

// Handler serves the measurement point screens.
type Handler struct {
	logger    *slog.Logger
	points    *backend.PointsClient
	refdata   *refdata.Cache
	responder *view.Responder
	validator *shared.Validator
	settings  listing.Settings
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, resources *backend.Resources, cache *refdata.Cache, responder *view.Responder, validator *shared.Validator, settings listing.Settings) *Handler {
	return &Handler{
		logger:    logger,
		points:    resources.Points,
		refdata:   cache,
		responder: responder,
		validator: validator,
		settings:  settings,
	}
}

// MountRoutes registers measurement point routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.list)
	r.Get(Path+"/new", h.newForm)
	r.Get(Path+"/alertas", h.alerts)
	r.Post(Path, h.create)
	r.Get(Path+"/{id}", h.detail)
	r.Get(Path+"/{id}/edit", h.editForm)
	r.Post(Path+"/{id}", h.update)
	r.Get(Path+"/{id}/delete", h.confirmDelete)
	r.Post(Path+"/{id}/delete", h.delete)
}

// NewController builds a fresh, uninitialized list controller.
func (h *Handler) NewController() *Controller {
	return listing.New[backend.MeasurementPoint, backend.MeasurementPointInput](h.points, h.refdata, listing.Config[backend.MeasurementPointInput]{
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
	List listing.View[backend.MeasurementPoint]
	Live string
}

type formPage struct {
	Form     pointForm
	Errors   map[string]string
	Editing  bool
	Return   string
	Action   string
	Snapshot *refdata.Snapshot
}

type detailPage struct {
	Point  *backend.MeasurementPoint
	Status calibration.Status
	Return string
}

type alertsPage struct {
	Days   int
	Alerts *backend.CalibrationAlerts
	Failed bool
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctl := h.NewController()
	ctl.Init(r.Context(), r.URL.Query())
	h.responder.Page(w, r, "pages/points_list.html", "Pontos de Medição", listPage{
		List: ctl.View(Path),
		Live: "/live" + Path,
	})
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	days := calibration.WarningDays
	if raw := r.URL.Query().Get("dias"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}
	page := alertsPage{Days: days}
	alerts, err := h.points.CalibrationAlerts(r.Context(), days)
	if err != nil {
		page.Failed = true
		alerts = &backend.CalibrationAlerts{}
	}
	page.Alerts = alerts
	h.responder.Page(w, r, "pages/points_alerts.html", "Alertas de Calibração", page)
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formPage{
		Form:   pointForm{NumeroSerieEquipamento: r.URL.Query().Get("equipamento")},
		Return: listing.ReturnTo(r.URL.Query().Get("return"), Path),
		Action: Path,
	})
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	point, err := h.points.Get(r.Context(), id)
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, formPage{
		Form:    formFromPoint(point),
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
	point, err := h.points.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleFetchError(w, r, err)
		return
	}
	h.responder.Page(w, r, "pages/points_detail.html", point.TagPontoMedicao, detailPage{
		Point:  point,
		Status: calibration.FromDate(point.DataProximaCalibracao, view.Now()),
		Return: listing.ReturnTo(r.URL.Query().Get("return"), Path),
	})
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.responder.Confirm(w, r, view.Confirmation{
		Title:   "Excluir ponto de medição",
		Message: "Tem certeza que deseja excluir este ponto de medição?",
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
	title := "Novo Ponto de Medição"
	if page.Editing {
		title = "Editar Ponto de Medição"
	}
	h.responder.PageStatus(w, r, status, "pages/points_form.html", title, page)
}

func (h *Handler) handleFetchError(w http.ResponseWriter, r *http.Request, err error) {
	if backend.IsStatus(err, http.StatusNotFound) {
		h.responder.NotFound(w, r)
		return
	}
	http.Redirect(w, r, Path, http.StatusSeeOther)
}
