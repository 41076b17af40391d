package shell_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/shell"
	"github.com/equip-manager/equip-console/internal/testing/backendtest"
	"github.com/equip-manager/equip-console/internal/testing/clocktest"
	"github.com/equip-manager/equip-console/internal/view"
)

type stubCritical struct {
	mu    sync.Mutex
	calls int
	err   error
	out   *backend.CriticalPoints
}

func (s *stubCritical) CriticalPoints(context.Context, int) (*backend.CriticalPoints, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func critical(overdue, upcoming int) *backend.CriticalPoints {
	cp := &backend.CriticalPoints{}
	for i := 0; i < overdue; i++ {
		d := -i - 1
		cp.Vencidos = append(cp.Vencidos, backend.CriticalPoint{ID: i + 1, TagPontoMedicao: "VENC", DiasRestantes: &d})
	}
	for i := 0; i < upcoming; i++ {
		d := i + 1
		cp.Proximos = append(cp.Proximos, backend.CriticalPoint{ID: 100 + i, TagPontoMedicao: "PROX", DiasRestantes: &d})
	}
	return cp
}

func newRegistry(inits *[]string) *shell.Registry {
	track := func(name string) func(context.Context) {
		return func(context.Context) { *inits = append(*inits, name) }
	}
	return shell.NewRegistry(
		shell.Section{Name: "dashboard", Title: "Dashboard", Path: "/dashboard", Init: track("dashboard")},
		shell.Section{Name: "equipamentos", Title: "Equipamentos", Path: "/equipamentos", Init: track("equipamentos"),
			Search: func(term string) string { return "/equipamentos?" + url.Values{"search": {term}}.Encode() }},
		shell.Section{Name: "importacao", Title: "Importação/Exportação", Path: "/importacao"},
	)
}

func TestRegistryForPathPrefersLongestMatch(t *testing.T) {
	reg := shell.NewRegistry(
		shell.Section{Name: "pontos", Path: "/pontos-medicao"},
		shell.Section{Name: "alertas", Path: "/pontos-medicao/alertas"},
	)

	s, ok := reg.ForPath("/pontos-medicao/alertas")
	require.True(t, ok)
	assert.Equal(t, "alertas", s.Name)

	s, ok = reg.ForPath("/pontos-medicao/12/edit")
	require.True(t, ok)
	assert.Equal(t, "pontos", s.Name)

	_, ok = reg.ForPath("/pontos-medicaox")
	assert.False(t, ok)
}

func TestRegistryTitleFallback(t *testing.T) {
	var inits []string
	reg := newRegistry(&inits)
	assert.Equal(t, "Equipamentos", reg.Title("equipamentos"))
	assert.Equal(t, shell.FallbackTitle, reg.Title("relatorios"))
}

func TestShowSectionPersistsAndInitialises(t *testing.T) {
	var inits []string
	reg := newRegistry(&inits)
	sess := shared.NewSession()

	assert.Equal(t, "dashboard", reg.CurrentSection(sess).Name)

	s, err := reg.ShowSection(context.Background(), sess, "equipamentos")
	require.NoError(t, err)
	assert.Equal(t, "Equipamentos", s.Title)
	assert.Equal(t, []string{"equipamentos"}, inits)
	assert.Equal(t, "equipamentos", reg.CurrentSection(sess).Name)

	_, err = reg.ShowSection(context.Background(), sess, "relatorios")
	assert.True(t, errors.Is(err, shell.ErrUnknownSection))
	assert.Equal(t, "equipamentos", reg.CurrentSection(sess).Name)
}

func TestToggleSidebar(t *testing.T) {
	sess := shared.NewSession()
	assert.False(t, shell.SidebarCollapsed(sess))
	assert.True(t, shell.ToggleSidebar(sess))
	assert.True(t, shell.SidebarCollapsed(sess))
	assert.False(t, shell.ToggleSidebar(sess))
	assert.False(t, shell.ToggleSidebar(nil))
}

func TestBadgeCachesWithinTTL(t *testing.T) {
	clock := clocktest.New()
	src := &stubCritical{out: critical(2, 3)}
	badge := shell.NewBadge(src, time.Minute, clock, nil)

	assert.Equal(t, 5, badge.Count(context.Background()))
	assert.Equal(t, 5, badge.Count(context.Background()))
	assert.Equal(t, 1, src.calls)

	src.out = critical(1, 0)
	src.out.Resumo.TotalCriticos = 9
	clock.Advance(time.Minute)
	assert.Equal(t, 9, badge.Count(context.Background()))
	assert.Equal(t, 2, src.calls)
}

func TestBadgeKeepsLastCountOnFailure(t *testing.T) {
	clock := clocktest.New()
	src := &stubCritical{err: errors.New("down")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	badge := shell.NewBadge(src, time.Minute, clock, logger)

	assert.Equal(t, -1, badge.Count(context.Background()))

	src.err = nil
	src.out = critical(0, 4)
	assert.Equal(t, -1, badge.Count(context.Background()), "a failure is cached for the TTL too")
	clock.Advance(time.Minute)
	assert.Equal(t, 4, badge.Count(context.Background()))

	src.err = errors.New("down again")
	assert.Equal(t, 4, badge.Refresh(context.Background()))
}

type fixture struct {
	inits   []string
	src     *stubCritical
	session *shared.Session
	handler *shell.Handler
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{src: &stubCritical{out: critical(6, 2)}, session: shared.NewSession()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := newRegistry(&f.inits)
	f.handler = shell.NewHandler(logger, reg, f.src, shell.NewBadge(f.src, time.Minute, clocktest.New(), logger))
	engine, err := view.NewEngine()
	require.NoError(t, err)
	f.handler.SetResponder(view.NewResponder(engine, nil, f.handler.Chrome, logger))

	r := chi.NewRouter()
	r.Use(f.handler.Track)
	f.handler.MountRoutes(r)
	r.Get("/equipamentos", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/importacao", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	f.router = backendtest.WithSession(r, f.session)
	return f
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHomeFollowsActiveSection(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	f.serve(httptest.NewRequest(http.MethodGet, "/equipamentos", nil))
	f.serve(httptest.NewRequest(http.MethodGet, "/equipamentos?page=2", nil))
	assert.Equal(t, []string{"equipamentos"}, f.inits, "init runs once per section switch")

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/equipamentos", rec.Header().Get("Location"))
}

func TestSearchUsesActiveSection(t *testing.T) {
	f := newFixture(t)
	f.serve(httptest.NewRequest(http.MethodGet, "/equipamentos", nil))

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/search?q=+balan%C3%A7a+", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/equipamentos?search=balan%C3%A7a", rec.Header().Get("Location"))
}

func TestSearchUnavailableFlashesInfo(t *testing.T) {
	f := newFixture(t)
	f.serve(httptest.NewRequest(http.MethodGet, "/importacao", nil))

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/search?q=x", nil))

	assert.Equal(t, "/importacao", rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{{Kind: "info", Message: "Busca não disponível nesta seção"}}, f.session.PopFlashes())
}

func TestSidebarToggleReturnsToLocalPathOnly(t *testing.T) {
	f := newFixture(t)

	post := func(back string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/ui/sidebar", strings.NewReader(url.Values{"return": {back}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return f.serve(req)
	}

	rec := post("/equipamentos?page=2")
	assert.Equal(t, "/equipamentos?page=2", rec.Header().Get("Location"))
	assert.True(t, shell.SidebarCollapsed(f.session))

	rec = post("//evil.example")
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.False(t, shell.SidebarCollapsed(f.session))
}

func TestChromeMarksActiveSectionAndBadge(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/equipamentos/SN1", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), f.session))
	chrome := f.handler.Chrome(req)

	assert.Equal(t, "equipamentos", chrome.Section)
	assert.Equal(t, "Equipamentos", chrome.SectionTitle)
	assert.Equal(t, 8, chrome.Badge)
	require.Len(t, chrome.Nav, 3)
	assert.True(t, chrome.Nav[1].Active)
	assert.False(t, chrome.Nav[0].Active)
}

func TestNotificationsListsAtMostFivePerGroup(t *testing.T) {
	f := newFixture(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/notifications", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, shell.NotificationLimit, strings.Count(body, "<strong>VENC</strong>"))
	assert.Equal(t, 2, strings.Count(body, "<strong>PROX</strong>"))
	assert.Contains(t, body, "Vencidas")
}
