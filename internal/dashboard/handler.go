package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// Path is where the dashboard lives.
const Path = "/dashboard"

const msgRefreshed = "Dashboard atualizado com sucesso"

// Handler serves the dashboard screens.
type Handler struct {
	logger    *slog.Logger
	source    Source
	responder *view.Responder
	now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, source Source, responder *view.Responder) *Handler {
	return &Handler{logger: logger, source: source, responder: responder, now: time.Now}
}

// MountRoutes registers dashboard routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(Path, h.show)
	r.Post(Path+"/refresh", h.refresh)
	r.Get(Path+"/indicadores", h.indicators)
}

type overviewPage struct {
	Overview *Overview
	Failed   bool
}

type indicatorsPage struct {
	Indicators *Indicators
	Failed     bool
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ov, _ := h.load(r.Context())
	h.responder.Page(w, r, "pages/dashboard.html", "Dashboard", overviewPage{Overview: ov, Failed: ov == nil})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ov, err := h.load(r.Context())
	if err == nil {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: backend.KindSuccess, Message: msgRefreshed})
		}
	}
	h.responder.Page(w, r, "pages/dashboard.html", "Dashboard", overviewPage{Overview: ov, Failed: ov == nil})
}

func (h *Handler) indicators(w http.ResponseWriter, r *http.Request) {
	ind, err := LoadIndicators(backend.WithNotifier(r.Context(), backend.Discard), h.source)
	if err != nil {
		h.failed(r.Context(), "indicators", err)
		ind = nil
	}
	h.responder.Page(w, r, "pages/dashboard_indicators.html", "Indicadores", indicatorsPage{Indicators: ind, Failed: ind == nil})
}

// load runs the batch with per-call notifications muted and reports one
// failure for the whole batch.
func (h *Handler) load(ctx context.Context) (*Overview, error) {
	ov, err := Load(backend.WithNotifier(ctx, backend.Discard), h.source, h.now())
	if err != nil {
		h.failed(ctx, "overview", err)
		return nil, err
	}
	return ov, nil
}

func (h *Handler) failed(ctx context.Context, what string, err error) {
	h.logger.Warn("dashboard load failed", slog.String("view", what), slog.Any("error", err))
	backend.Notify(ctx, backend.SessionNotifier{}, backend.Notification{
		Kind:    backend.KindError,
		Message: "Erro ao carregar dashboard: " + backend.UserMessage(err),
	})
}
