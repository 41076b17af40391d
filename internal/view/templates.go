package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/equip-manager/equip-console/internal/calibration"
	"github.com/equip-manager/equip-console/internal/shared"
	"github.com/equip-manager/equip-console/web"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Name   string
	Title  string
	Path   string
	Icon   string
	Active bool
}

// Chrome is the layout state around every page: sidebar, header title and badge.
type Chrome struct {
	Nav              []NavItem
	Section          string
	SectionTitle     string
	SidebarCollapsed bool
	// Badge is the number of critical points; -1 when it could not be loaded.
	Badge int
}

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flashes     []shared.FlashMessage
	CurrentPath string
	Chrome      Chrome
	Data        any
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Now is the clock used by the date-relative template helpers.
var Now = time.Now

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"formatNumber":   FormatNumber,
		"formatInt":      func(n int) string { return printer.Sprintf("%d", n) },
		"truncate":       Truncate,
		"statusBadge":    StatusBadge,
		"dateStatus":     func(raw string) calibration.Status { return calibration.FromDate(raw, Now()) },
		"daysStatus":     calibration.FromDays,
		"daysRemaining":  calibration.FormatDaysRemaining,
		"str":            shared.DerefString,
		"float":          shared.FormatFloat,
		"int":            shared.FormatInt,
		"orDash":         OrDash,
		"dict":           Dict,
	}
}

// Render executes a named template with TemplateData and writes it with status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status. Nothing is written when the template fails.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Fragment executes a partial into out, for responses that are not full pages.
func (e *Engine) Fragment(out io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(out, name, data)
}

// FormatDate renders a backend date as dd/mm/yyyy, "-" when empty.
func FormatDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	t, ok := calibration.ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("02/01/2006")
}

// FormatDateTime renders a backend timestamp as dd/mm/yyyy hh:mm.
func FormatDateTime(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "-"
	}
	t, ok := calibration.ParseDate(raw)
	if !ok {
		return raw
	}
	return t.Format("02/01/2006 15:04")
}

// FormatNumber renders a decimal with pt-BR separators and two places, "-" when nil.
func FormatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%.2f", *v)
}

// Truncate cuts s to n runes and appends an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// StatusBadge renders a calibration status pill.
func StatusBadge(s calibration.Status) template.HTML {
	return template.HTML(fmt.Sprintf(`<span class="status-badge %s">%s</span>`,
		template.HTMLEscapeString(s.Key), template.HTMLEscapeString(s.Text)))
}

// OrDash replaces blank strings with "-".
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// Dict builds a map from alternating keys and values, for passing several values to a partial.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}
