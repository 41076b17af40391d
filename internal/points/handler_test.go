package points_test

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

	"github.com/equip-manager/equip-console/internal/listing"
	"github.com/equip-manager/equip-console/internal/points"
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
		`{"polos":[{"id":1,"nome":"Polo Norte"},{"id":2,"nome":"Polo Sul"}],"classificacoes_ponto_medicao":[{"id":7,"nome":"Fiscal"}]}`)

	resources := api.Resources()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := points.NewHandler(logger, resources, refdata.NewCache(resources.Config),
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

func TestListTranslatesFilterParams(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/pontos-medicao", http.StatusOK,
		`{"pontos_medicao":[{"id":4,"tag_ponto_medicao":"FT-101","nome_ponto_medicao":"Medição de gás","polo":"Polo Sul"}],"total":1,"pages":1,"current_page":1,"per_page":20}`)

	rec := f.do(http.MethodGet, "/pontos-medicao?polo=2&classificacao=7&vencimento_proximo=true", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "FT-101")
	assert.Contains(t, body, "Fiscal")
	assert.Contains(t, body, "Próximos do vencimento")

	call, ok := f.api.Last(http.MethodGet, "/api/pontos-medicao")
	require.True(t, ok)
	assert.Equal(t, "classificacao_id=7&page=1&per_page=20&polo_id=2&vencimento_proximo=true", call.Query)
}

func TestCreateSendsNullForBlankOptionals(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodPost, "/api/pontos-medicao", http.StatusCreated, `{"message":"ok"}`)

	rec := f.do(http.MethodPost, "/pontos-medicao", url.Values{
		"tag_ponto_medicao":         {"FT-102"},
		"nome_ponto_medicao":        {"Óleo"},
		"polo_id":                   {"1"},
		"data_proxima_calibracao":   {"2025-06-30"},
		"frequencia_calibracao_anp": {""},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, points.Path, rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{{Kind: "success", Message: "Ponto de medição criado com sucesso"}}, f.session.PopFlashes())

	call, ok := f.api.Last(http.MethodPost, "/api/pontos-medicao")
	require.True(t, ok)
	assert.Contains(t, call.Body, `"polo_id":1`)
	assert.Contains(t, call.Body, `"data_proxima_calibracao":"2025-06-30"`)
	assert.Contains(t, call.Body, `"frequencia_calibracao_anp":null`)
	assert.Contains(t, call.Body, `"numero_serie_equipamento":null`)
}

func TestCreateRejectsBadDate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/pontos-medicao", url.Values{
		"tag_ponto_medicao":      {"FT-102"},
		"nome_ponto_medicao":     {"Óleo"},
		"data_ultima_calibracao": {"31/02/2025"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data inválida")
	assert.Zero(t, f.api.Count(http.MethodPost, "/api/pontos-medicao"))
}

func TestNewFormPrefillsEquipment(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/pontos-medicao/new?equipamento=SN77", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="SN77"`)
}

func TestEditFormTrimsTimestamps(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/pontos-medicao/4", http.StatusOK,
		`{"id":4,"tag_ponto_medicao":"FT-101","nome_ponto_medicao":"Gás","data_proxima_calibracao":"2025-06-30T00:00:00"}`)

	rec := f.do(http.MethodGet, "/pontos-medicao/4/edit", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="2025-06-30"`)
}

func TestDetailShowsCalibrationStatus(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/pontos-medicao/4", http.StatusOK,
		`{"id":4,"tag_ponto_medicao":"FT-101","nome_ponto_medicao":"Gás","data_proxima_calibracao":"2020-01-10"}`)

	rec := f.do(http.MethodGet, "/pontos-medicao/4", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<span class="status-badge vencido">Vencido</span>`)
	assert.Contains(t, body, "10/01/2020")
}

func TestAlertsUsesRequestedWindow(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/pontos-medicao/alertas-calibracao", http.StatusOK,
		`{"pontos_vencidos":[{"id":1,"tag_ponto_medicao":"FT-001","dias_restantes":-3}],"pontos_proximos_vencimento":[],"total_vencidos":1,"total_proximos":0}`)

	rec := f.do(http.MethodGet, "/pontos-medicao/alertas?dias=60", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "FT-001")
	assert.Contains(t, body, "Vencem em 60 dias")
	assert.Contains(t, body, "Nenhum vencimento na janela selecionada.")

	call, ok := f.api.Last(http.MethodGet, "/api/pontos-medicao/alertas-calibracao")
	require.True(t, ok)
	assert.Equal(t, "dias=60", call.Query)
}

func TestAlertsFallsBackToDefaultWindow(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodGet, "/api/pontos-medicao/alertas-calibracao", http.StatusInternalServerError, `{"error":"falha"}`)

	rec := f.do(http.MethodGet, "/pontos-medicao/alertas?dias=-5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Não foi possível carregar os alertas de calibração.")
	call, ok := f.api.Last(http.MethodGet, "/api/pontos-medicao/alertas-calibracao")
	require.True(t, ok)
	assert.Equal(t, "dias=30", call.Query)
}

func TestDeleteConfirmedRedirectsBack(t *testing.T) {
	f := newFixture(t)
	f.api.Handle(http.MethodDelete, "/api/pontos-medicao/4", http.StatusOK, `{"message":"removido"}`)

	rec := f.do(http.MethodPost, "/pontos-medicao/4/delete", url.Values{"confirmed": {"true"}, "return": {"/pontos-medicao?page=2"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/pontos-medicao?page=2", rec.Header().Get("Location"))
	assert.Equal(t, 1, f.api.Count(http.MethodDelete, "/api/pontos-medicao/4"))
	assert.Equal(t, []shared.FlashMessage{{Kind: "success", Message: "Ponto de medição excluído com sucesso"}}, f.session.PopFlashes())
}
