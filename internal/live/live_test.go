package live

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

type fakeScreen struct {
	debouncer *shared.Debouncer
	client    *backend.Client

	mu       sync.Mutex
	search   string
	filter   map[string]string
	page     int
	searches []string
	closed   bool
}

func newFakeScreen(client *backend.Client) *fakeScreen {
	return &fakeScreen{
		debouncer: shared.NewDebouncer(40*time.Millisecond, nil),
		client:    client,
		filter:    map[string]string{},
		page:      1,
	}
}

func (s *fakeScreen) Init(_ context.Context, query url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = query.Get("search")
	if p := query.Get("page"); p != "" {
		_, _ = fmt.Sscan(p, &s.page)
	}
}

func (s *fakeScreen) Search(ctx context.Context, term string) url.Values {
	if s.client != nil {
		_ = s.client.Get(ctx, "/api/equipamentos", nil, nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
	s.page = 1
	s.searches = append(s.searches, term)
	return nil
}

func (s *fakeScreen) SetFilter(_ context.Context, name, value string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter[name] = value
	s.page = 1
	return nil
}

func (s *fakeScreen) GoToPage(_ context.Context, n int) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
	return nil
}

func (s *fakeScreen) Type(term string, deliver func(string)) {
	s.debouncer.Call(func() { deliver(term) })
}

func (s *fakeScreen) Close() {
	s.debouncer.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeScreen) Render(out io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(out, "<table data-page=%q></table>", fmt.Sprint(s.page))
	return err
}

func (s *fakeScreen) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := url.Values{}
	if s.search != "" {
		q.Set("search", s.search)
	}
	for k, v := range s.filter {
		q.Set(k, v)
	}
	if s.page > 1 {
		q.Set("page", fmt.Sprint(s.page))
	}
	if len(q) == 0 {
		return "/equipamentos"
	}
	return "/equipamentos?" + q.Encode()
}

func (s *fakeScreen) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

func startLive(t *testing.T, screen *fakeScreen) *websocket.Conn {
	t.Helper()
	h := NewHandler(nil, nil)
	h.Register("equipamentos", func() Screen { return screen })
	router := chi.NewRouter()
	h.MountRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/equipamentos"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) ServerFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame ServerFrame
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func TestInitRendersCanonicalURL(t *testing.T) {
	ws := startLive(t, newFakeScreen(nil))

	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameInit, Query: "?search=abc&page=2"}))
	frame := readFrame(t, ws)

	assert.Equal(t, FrameRender, frame.Type)
	assert.Equal(t, "/equipamentos?page=2&search=abc", frame.URL)
	assert.Contains(t, frame.HTML, `data-page="2"`)
}

func TestFilterAndPageFramesRender(t *testing.T) {
	ws := startLive(t, newFakeScreen(nil))
	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameInit}))
	readFrame(t, ws)

	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameFilter, Name: "fabricante", Value: "3"}))
	assert.Equal(t, "/equipamentos?fabricante=3", readFrame(t, ws).URL)

	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FramePage, Page: 4}))
	assert.Equal(t, "/equipamentos?fabricante=3&page=4", readFrame(t, ws).URL)
}

func TestKeystrokeBurstRendersOnce(t *testing.T) {
	screen := newFakeScreen(nil)
	ws := startLive(t, screen)
	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameInit}))
	readFrame(t, ws)

	for _, v := range []string{"b", "ba", "bal", "bala"} {
		require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameType, Value: v}))
	}

	frame := readFrame(t, ws)
	assert.Equal(t, FrameRender, frame.Type)
	assert.Equal(t, "/equipamentos?search=bala", frame.URL)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var extra ServerFrame
	err := ws.ReadJSON(&extra)
	require.Error(t, err, "no second render expected, got %+v", extra)
	assert.Equal(t, []string{"bala"}, screen.Searches())
}

func TestBackendFailureSendsLoadingAndToast(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Banco indisponível"}`)
	}))
	t.Cleanup(api.Close)
	client := backend.NewClient(api.URL, time.Second)

	ws := startLive(t, newFakeScreen(client))
	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameSearch, Value: "x"}))

	// no init frame: the screen is initialized silently before the search
	first := readFrame(t, ws)
	require.Equal(t, FrameLoading, first.Type)
	require.NotNil(t, first.Active)
	assert.True(t, *first.Active)

	second := readFrame(t, ws)
	require.Equal(t, FrameLoading, second.Type)
	assert.False(t, *second.Active)

	toast := readFrame(t, ws)
	assert.Equal(t, FrameToast, toast.Type)
	assert.Equal(t, backend.KindError, toast.Kind)
	assert.Equal(t, "Banco indisponível", toast.Message)

	assert.Equal(t, FrameRender, readFrame(t, ws).Type)
}

func TestUnknownSectionIsNotFound(t *testing.T) {
	h := NewHandler(nil, nil)
	router := chi.NewRouter()
	h.MountRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live/nada", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScreenClosedWhenClientLeaves(t *testing.T) {
	screen := newFakeScreen(nil)
	ws := startLive(t, screen)
	require.NoError(t, ws.WriteJSON(ClientFrame{Type: FrameInit}))
	readFrame(t, ws)
	require.NoError(t, ws.Close())

	assert.Eventually(t, func() bool {
		screen.mu.Lock()
		defer screen.mu.Unlock()
		return screen.closed
	}, 2*time.Second, 10*time.Millisecond)
}
