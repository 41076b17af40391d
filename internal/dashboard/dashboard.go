// Package dashboard serves the overview screen: headline counters, the
// manufacturer doughnut, the monthly calibration bars and the most critical
// measurement points.
package dashboard

import (
	"context"
	"html/template"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/calibration"
	"github.com/equip-manager/equip-console/internal/dashboard/svg"
)

const (
	// CriticalWindowDays is the look-ahead of the critical points query.
	CriticalWindowDays = 30
	// TopManufacturers is how many manufacturers the doughnut shows.
	TopManufacturers = 8
	// TopCritical is how many critical points the table shows.
	TopCritical = 10
	// ActivityLimit is how many entries the activity feed shows.
	ActivityLimit = 10
)

// Source is the backend surface of the dashboard.
type Source interface {
	Summary(ctx context.Context) (*backend.Summary, error)
	EquipmentStats(ctx context.Context) (*backend.DashboardStats, error)
	CalibrationSchedule(ctx context.Context, ano int) (*backend.CalibrationSchedule, error)
	CriticalPoints(ctx context.Context, dias int) (*backend.CriticalPoints, error)
	PerformanceIndicators(ctx context.Context) (*backend.PerformanceIndicators, error)
	RecentActivity(ctx context.Context, limite int) ([]backend.Activity, error)
}

// StatCard is one headline counter.
type StatCard struct {
	Key   string
	Label string
	Value int
	Tone  string
}

// CriticalRow is one line of the critical points table.
type CriticalRow struct {
	backend.CriticalPoint
	Status    calibration.Status
	Remaining string
}

// Overview is everything the dashboard page renders.
type Overview struct {
	Cards         []StatCard
	Manufacturers template.HTML
	Schedule      template.HTML
	ScheduleYear  int
	ScheduleTotal int
	Critical      []CriticalRow
	LoadedAt      time.Time
}

// Load fetches the four dashboard datasets concurrently. Any failure fails
// the whole batch so a half-filled dashboard is never shown.
func Load(ctx context.Context, src Source, now time.Time) (*Overview, error) {
	var (
		summary  *backend.Summary
		stats    *backend.DashboardStats
		schedule *backend.CalibrationSchedule
		critical *backend.CriticalPoints
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = src.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = src.EquipmentStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		schedule, err = src.CalibrationSchedule(gctx, 0)
		return err
	})
	g.Go(func() error {
		var err error
		critical, err = src.CriticalPoints(gctx, CriticalWindowDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ov := &Overview{
		Cards:         Cards(summary),
		ScheduleYear:  schedule.Ano,
		ScheduleTotal: schedule.TotalAno,
		Critical:      TopCriticalPoints(critical, TopCritical),
		LoadedAt:      now,
	}
	var err error
	if ov.Manufacturers, err = ManufacturerChart(stats); err != nil {
		return nil, err
	}
	if ov.Schedule, err = ScheduleChart(schedule); err != nil {
		return nil, err
	}
	return ov, nil
}

// Cards maps the summary onto the stat cards.
func Cards(s *backend.Summary) []StatCard {
	if s == nil {
		return nil
	}
	return []StatCard{
		{Key: "equipamentos", Label: "Equipamentos", Value: s.Totais.Equipamentos, Tone: "primary"},
		{Key: "pontos", Label: "Pontos de Medição", Value: s.Totais.PontosMedicao, Tone: "info"},
		{Key: "certificados", Label: "Certificados", Value: s.Totais.Certificados, Tone: "success"},
		{Key: "vencidos", Label: "Calibrações Vencidas", Value: s.AlertasCalibracao.Vencidos, Tone: "danger"},
		{Key: "proximos", Label: "Próximos do Vencimento", Value: s.AlertasCalibracao.ProximosVencimento, Tone: "warning"},
	}
}

// ManufacturerChart renders the first TopManufacturers entries as a doughnut.
func ManufacturerChart(stats *backend.DashboardStats) (template.HTML, error) {
	var rows []backend.NameCount
	if stats != nil {
		rows = stats.PorFabricante
	}
	if len(rows) > TopManufacturers {
		rows = rows[:TopManufacturers]
	}
	if len(rows) == 0 {
		return "", nil
	}
	slices := make([]svg.Slice, 0, len(rows))
	for _, row := range rows {
		slices = append(slices, svg.Slice{Label: row.Nome, Value: float64(row.Count)})
	}
	if blank(slices) {
		return "", nil
	}
	return svg.Doughnut(svg.DefaultWidth, svg.DefaultHeight, slices, svg.DoughnutOpts{
		Title:       "Equipamentos por fabricante",
		Description: "Distribuição dos equipamentos entre os principais fabricantes",
	})
}

// ScheduleChart renders calibrations per month as bars.
func ScheduleChart(schedule *backend.CalibrationSchedule) (template.HTML, error) {
	var months []backend.ScheduleMonth
	if schedule != nil {
		months = schedule.Cronograma
	}
	if len(months) == 0 {
		return "", nil
	}
	values := make([]float64, 0, len(months))
	labels := make([]string, 0, len(months))
	for _, m := range months {
		values = append(values, float64(m.Calibracoes))
		labels = append(labels, m.Mes)
	}
	return svg.Bars(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.BarOpts{
		Title:       "Cronograma de calibrações",
		Description: "Calibrações programadas por mês",
		Caption:     "Calibrações Programadas",
	})
}

// TopCriticalPoints merges overdue and upcoming points, orders them by days
// remaining (unknown counts as zero) and keeps the first limit.
func TopCriticalPoints(cp *backend.CriticalPoints, limit int) []CriticalRow {
	if cp == nil {
		return nil
	}
	all := make([]backend.CriticalPoint, 0, len(cp.Vencidos)+len(cp.Proximos))
	all = append(all, cp.Vencidos...)
	all = append(all, cp.Proximos...)
	sort.SliceStable(all, func(i, j int) bool {
		return daysOrZero(all[i].DiasRestantes) < daysOrZero(all[j].DiasRestantes)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	rows := make([]CriticalRow, 0, len(all))
	for _, p := range all {
		rows = append(rows, CriticalRow{
			CriticalPoint: p,
			Status:        calibration.FromDays(p.DiasRestantes),
			Remaining:     calibration.FormatDaysRemaining(p.DiasRestantes),
		})
	}
	return rows
}

// blank reports whether a doughnut would have nothing to draw.
func blank(slices []svg.Slice) bool {
	for _, s := range slices {
		if s.Value > 0 {
			return false
		}
	}
	return true
}

func daysOrZero(d *int) int {
	if d == nil {
		return 0
	}
	return *d
}

// Indicators is the performance page: compliance figures and the activity feed.
type Indicators struct {
	Performance  *backend.PerformanceIndicators
	Certificates template.HTML
	Activity     []backend.Activity
}

// LoadIndicators fetches the performance figures and the recent activity.
func LoadIndicators(ctx context.Context, src Source) (*Indicators, error) {
	var out Indicators
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Performance, err = src.PerformanceIndicators(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Activity, err = src.RecentActivity(gctx, ActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices := make([]svg.Slice, 0, len(out.Performance.CertificadosPorStatus))
	for _, s := range out.Performance.CertificadosPorStatus {
		slices = append(slices, svg.Slice{Label: s.Status, Value: float64(s.Count)})
	}
	if blank(slices) {
		return &out, nil
	}
	chart, err := svg.Doughnut(svg.DefaultWidth, svg.DefaultHeight, slices, svg.DoughnutOpts{
		Title:       "Certificados por status",
		Description: "Quantidade de certificados em cada status",
	})
	if err != nil {
		return nil, err
	}
	out.Certificates = chart
	return &out, nil
}
