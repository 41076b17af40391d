package shell

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/calibration"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/internal/view"
)

// NotificationLimit is how many points of each group the bell menu lists.
const NotificationLimit = 5

const msgSearchUnavailable = "Busca não disponível nesta seção"

// Handler serves the frame routes and builds the layout state of every page.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	critical  CriticalSource
	badge     *Badge
	responder *view.Responder
}

// NewHandler constructs a Handler. The responder may be attached later with
// SetResponder because the responder itself needs Chrome.
func NewHandler(logger *slog.Logger, registry *Registry, critical CriticalSource, badge *Badge) *Handler {
	return &Handler{logger: logger, registry: registry, critical: critical, badge: badge}
}

// SetResponder attaches the page renderer.
func (h *Handler) SetResponder(rs *view.Responder) { h.responder = rs }

// MountRoutes registers frame routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/search", h.search)
	r.Get("/notifications", h.notifications)
	r.Post("/ui/sidebar", h.toggleSidebar)
}

// Track records the section of every page visited with GET as the active
// one, so "/" and global search follow the operator around.
func (h *Handler) Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if sess := shared.SessionFromContext(r.Context()); sess != nil {
				if s, ok := h.registry.ForPath(r.URL.Path); ok && sess.Get(sessionSection) != s.Name {
					if _, err := h.registry.ShowSection(r.Context(), sess, s.Name); err != nil {
						h.logger.Warn("show section", slog.String("section", s.Name), slog.Any("error", err))
					}
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Chrome builds the sidebar, header title and badge for r.
func (h *Handler) Chrome(r *http.Request) view.Chrome {
	sess := shared.SessionFromContext(r.Context())
	current, ok := h.registry.ForPath(r.URL.Path)
	if !ok {
		current = h.registry.CurrentSection(sess)
	}
	chrome := view.Chrome{
		Section:          current.Name,
		SectionTitle:     h.registry.Title(current.Name),
		SidebarCollapsed: SidebarCollapsed(sess),
		Badge:            -1,
	}
	for _, s := range h.registry.Sections() {
		chrome.Nav = append(chrome.Nav, view.NavItem{
			Name:   s.Name,
			Title:  s.Title,
			Path:   s.Path,
			Icon:   s.Icon,
			Active: s.Name == current.Name,
		})
	}
	if h.badge != nil {
		chrome.Badge = h.badge.Count(r.Context())
	}
	return chrome
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	s := h.registry.CurrentSection(shared.SessionFromContext(r.Context()))
	http.Redirect(w, r, s.Path, http.StatusSeeOther)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	s := h.registry.CurrentSection(shared.SessionFromContext(r.Context()))
	if !s.Searchable() {
		h.responder.Redirect(w, r, s.Path, backend.KindInfo, msgSearchUnavailable)
		return
	}
	http.Redirect(w, r, s.Search(term), http.StatusSeeOther)
}

func (h *Handler) toggleSidebar(w http.ResponseWriter, r *http.Request) {
	ToggleSidebar(shared.SessionFromContext(r.Context()))
	back := r.PostFormValue("return")
	if !localPath(back) {
		back = h.registry.CurrentSection(shared.SessionFromContext(r.Context())).Path
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Notification is one entry of the bell menu.
type Notification struct {
	backend.CriticalPoint
	Status    calibration.Status
	Remaining string
}

type notificationsPage struct {
	Overdue  []Notification
	Upcoming []Notification
	Total    int
	Failed   bool
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	var page notificationsPage
	cp, err := h.critical.CriticalPoints(backend.WithNotifier(r.Context(), backend.Discard), BadgeWindowDays)
	if err != nil {
		h.logger.Warn("notifications", slog.Any("error", err))
		page.Failed = true
	} else {
		page.Overdue = notificationsOf(cp.Vencidos)
		page.Upcoming = notificationsOf(cp.Proximos)
		page.Total = len(cp.Vencidos) + len(cp.Proximos)
	}
	h.responder.Page(w, r, "pages/notifications.html", "Notificações", page)
}

func notificationsOf(points []backend.CriticalPoint) []Notification {
	if len(points) > NotificationLimit {
		points = points[:NotificationLimit]
	}
	out := make([]Notification, 0, len(points))
	for _, p := range points {
		out = append(out, Notification{
			CriticalPoint: p,
			Status:        calibration.FromDays(p.DiasRestantes),
			Remaining:     calibration.FormatDaysRemaining(p.DiasRestantes),
		})
	}
	return out
}

func localPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.ContainsAny(p, "\\\r\n")
}
