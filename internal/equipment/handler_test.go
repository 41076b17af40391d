package equipment_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equip-manager/equip-console/internal/equipment"
	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/refdata"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/testing/backendtest"
	"github.com/equip-manager/equip-console/internal/view"
)

type fixture struct {
	api     *backendtest.Server
	session *shared.Session
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := backendtest.New(t)
	api.Handle(http.MethodGet, "/api/configuracoes/todas", http.StatusOK,
		`{"fabricantes":[{"id":1,"nome":"Emerson"},{"id":2,"nome":"Yokogawa"}],"tipos_equipamento":[{"id":3,"nome":"Transmissor"}]}`)

	resources := api.Resources()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := equipment.NewHandler(logger, resources, refdata.NewCache(resources.Config),
		view.NewResponder(engine, nil, nil, logger), shared.NewValidator(), listing.Settings{PerPage: 20})

	r := chi.NewRouter()
	h.MountRoutes(r)
	sess := shared.NewSession()
	return &fixture{api: api, session: sess, router: backendtest.WithSession(r, sess)}
}

func (f *fixture) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestListRendersPageWithFilters(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/equipamentos", http.StatusOK,
		`{"equipamentos":[{"numero_serie":"SN123","nome_equipamento":"Transmissor de pressão","fabricante":"Emerson"}],"total":1,"pages":1,"current_page":1,"per_page":20}`)

	rec := f.do(http.MethodGet, "/equipamentos?fabricante=1&search=trans", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "SN123")
	assert.Contains(t, body, `data-live="/live/equipamentos"`)
	assert.Contains(t, body, "Yokogawa")

	call, ok := f.api.Last(http.MethodGet, "/api/equipamentos")
	require.True(t, ok)
	assert.Equal(t, "fabricante_id=1&page=1&per_page=20&search=trans", call.Query)
}

func TestCreateRejectsInvalidFormLocally(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/equipamentos", url.Values{"numero_serie": {"SN9"}, "resolucao": {"abc"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Campo obrigatório")
	assert.Contains(t, body, "Informe um número")
	assert.Contains(t, body, view.FormInvalidMessage)
	assert.Zero(t, f.api.Count(http.MethodPost, "/api/equipamentos"))
}

func TestCreateRedirectsWithSuccessFlash(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodPost, "/api/equipamentos", http.StatusCreated, `{"message":"Equipamento criado com sucesso"}`)

	rec := f.do(http.MethodPost, "/equipamentos", url.Values{
		"numero_serie":     {"SN9"},
		"nome_equipamento": {"Balança"},
		"fabricante_id":    {"2"},
		"return":           {"/equipamentos?page=2"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/equipamentos?page=2", rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{{Kind: "success", Message: "Equipamento criado com sucesso"}}, f.session.PopFlashes())

	call, ok := f.api.Last(http.MethodPost, "/api/equipamentos")
	require.True(t, ok)
	assert.Contains(t, call.Body, `"nome_equipamento":"Balança"`)
	assert.Contains(t, call.Body, `"fabricante_id":2`)
	assert.Contains(t, call.Body, `"tag_equipamento":null`)
}

func TestCreateBackendErrorKeepsForm(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodPost, "/api/equipamentos", http.StatusBadRequest, `{"error":"Número de série já cadastrado"}`)

	rec := f.do(http.MethodPost, "/equipamentos", url.Values{"numero_serie": {"SN9"}, "nome_equipamento": {"Balança"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Número de série já cadastrado")
	assert.Contains(t, body, `value="Balança"`)
}

func TestUnsafeReturnFallsBackToList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/equipamentos", url.Values{
		"numero_serie":     {"SN9"},
		"nome_equipamento": {"Balança"},
		"return":           {"https://example.com/"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, equipment.Path, rec.Header().Get("Location"))
}

func TestUpdateKeepsSerialFromPath(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/equipamentos/SN1", url.Values{"numero_serie": {"OTHER"}, "nome_equipamento": {"Balança"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	call, ok := f.api.Last(http.MethodPut, "/api/equipamentos/SN1")
	require.True(t, ok)
	assert.Contains(t, call.Body, `"numero_serie":"SN1"`)
}

func TestUpdateFromDetailReturnsToDetail(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/equipamentos/SN1", url.Values{
		"nome_equipamento": {"Balança"},
		"return":           {"/equipamentos/SN1"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/equipamentos/SN1", rec.Header().Get("Location"))
}

func TestDeleteWithoutConfirmationShowsConfirmPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/equipamentos/SN1/delete", url.Values{"return": {"/equipamentos?page=3"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/equipamentos/SN1/delete?return=%2Fequipamentos%3Fpage%3D3", rec.Header().Get("Location"))
	assert.Zero(t, f.api.Count(http.MethodDelete, "/api/equipamentos/SN1"))

	confirm := f.do(http.MethodGet, rec.Header().Get("Location"), nil)
	assert.Equal(t, http.StatusOK, confirm.Code)
	assert.Contains(t, confirm.Body.String(), "Tem certeza que deseja excluir este equipamento?")
}

func TestDeleteConfirmed(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodDelete, "/api/equipamentos/SN1", http.StatusOK, `{"message":"ok"}`)

	rec := f.do(http.MethodPost, "/equipamentos/SN1/delete", url.Values{"confirmed": {"true"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, equipment.Path, rec.Header().Get("Location"))
	assert.Equal(t, 1, f.api.Count(http.MethodDelete, "/api/equipamentos/SN1"))
	assert.Equal(t, []shared.FlashMessage{{Kind: "success", Message: "Equipamento excluído com sucesso"}}, f.session.PopFlashes())
}

func TestDetailNotFound(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/equipamentos/NOPE", http.StatusNotFound, `{"error":"Equipamento não encontrado"}`)

	rec := f.do(http.MethodGet, "/equipamentos/NOPE", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registro não encontrado")
}

func TestDetailToleratesMissingCertificates(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/equipamentos/SN1", http.StatusOK, `{"numero_serie":"SN1","nome_equipamento":"Balança"}`)
	f.api.Handle(http.MethodGet, "/api/certificados/equipamento/SN1", http.StatusInternalServerError, `{"error":"falhou"}`)

	rec := f.do(http.MethodGet, "/equipamentos/SN1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nenhum certificado cadastrado")
	assert.Empty(t, f.session.PopFlashes())
}

func TestSearchLocation(t *testing.T) {
	assert.Equal(t, "/equipamentos?search=bal+a", equipment.SearchLocation("bal a"))
}
