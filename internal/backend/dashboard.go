package backend

import (
	"context"
	"net/url"
	"strconv"
)

const dashboardPath = "/api/dashboard"

// Summary holds the headline counters of the dashboard.
type Summary struct {
	Totais struct {
		Equipamentos  int `json:"equipamentos"`
		PontosMedicao int `json:"pontos_medicao"`
		Certificados  int `json:"certificados"`
	} `json:"totais"`
	AlertasCalibracao struct {
		Vencidos           int `json:"vencidos"`
		ProximosVencimento int `json:"proximos_vencimento"`
		TotalAlertas       int `json:"total_alertas"`
	} `json:"alertas_calibracao"`
}

// DashboardStats groups equipment counts for the charts.
type DashboardStats struct {
	PorFabricante []NameCount `json:"por_fabricante"`
	PorTipo       []NameCount `json:"por_tipo"`
	PorPolo       []NameCount `json:"por_polo"`
}

// ScheduleMonth is the number of calibrations due in one month.
type ScheduleMonth struct {
	Mes         string `json:"mes"`
	NumeroMes   int    `json:"numero_mes"`
	Calibracoes int    `json:"calibracoes"`
}

// CalibrationSchedule lists calibrations per month of one year.
type CalibrationSchedule struct {
	Ano        int             `json:"ano"`
	Cronograma []ScheduleMonth `json:"cronograma"`
	TotalAno   int             `json:"total_ano"`
}

// CriticalPoint is a measurement point overdue or close to its due date.
type CriticalPoint struct {
	ID                     int    `json:"id"`
	TagPontoMedicao        string `json:"tag_ponto_medicao"`
	NomePontoMedicao       string `json:"nome_ponto_medicao"`
	DataProximaCalibracao  string `json:"data_proxima_calibracao"`
	DiasRestantes          *int   `json:"dias_restantes"`
	Polo                   string `json:"polo"`
	Equipamento            string `json:"equipamento"`
	NumeroSerieEquipamento string `json:"numero_serie_equipamento"`
}

// CriticalPoints lists overdue and upcoming calibrations.
type CriticalPoints struct {
	Vencidos []CriticalPoint `json:"pontos_vencidos"`
	Proximos []CriticalPoint `json:"pontos_proximos"`
	Resumo   struct {
		TotalVencidos int `json:"total_vencidos"`
		TotalProximos int `json:"total_proximos"`
		TotalCriticos int `json:"total_criticos"`
	} `json:"resumo"`
}

// StatusCount is the number of certificates in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PerformanceIndicators summarises calibration compliance.
type PerformanceIndicators struct {
	Calibracoes struct {
		TotalPontos     int     `json:"total_pontos"`
		PontosEmDia     int     `json:"pontos_em_dia"`
		PercentualEmDia float64 `json:"percentual_em_dia"`
	} `json:"calibracoes"`
	CertificadosPorStatus []StatusCount `json:"certificados_por_status"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Tipo      string            `json:"tipo"`
	Descricao string            `json:"descricao"`
	Data      string            `json:"data"`
	Detalhes  map[string]string `json:"detalhes"`
}

// DashboardClient maps dashboard endpoints to backend calls.
type DashboardClient struct {
	c *Client
}

// NewDashboardClient constructs a DashboardClient.
func NewDashboardClient(c *Client) *DashboardClient {
	return &DashboardClient{c: c}
}

// Summary returns the headline counters.
func (d *DashboardClient) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	if err := d.c.Get(ctx, dashboardPath+"/resumo", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EquipmentStats returns equipment grouped by manufacturer, type and site.
func (d *DashboardClient) EquipmentStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := d.c.Get(ctx, dashboardPath+"/estatisticas-equipamentos", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CalibrationSchedule returns monthly calibrations of ano, or the current year when ano is zero.
func (d *DashboardClient) CalibrationSchedule(ctx context.Context, ano int) (*CalibrationSchedule, error) {
	var out CalibrationSchedule
	if err := d.c.Get(ctx, dashboardPath+"/cronograma-calibracoes", optionalInt("ano", ano), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CriticalPoints returns points overdue or due within dias days; zero uses the backend default.
func (d *DashboardClient) CriticalPoints(ctx context.Context, dias int) (*CriticalPoints, error) {
	var out CriticalPoints
	if err := d.c.Get(ctx, dashboardPath+"/pontos-criticos", optionalInt("dias", dias), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PerformanceIndicators returns calibration compliance figures.
func (d *DashboardClient) PerformanceIndicators(ctx context.Context) (*PerformanceIndicators, error) {
	var out PerformanceIndicators
	if err := d.c.Get(ctx, dashboardPath+"/indicadores-performance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecentActivity returns the latest recorded activities.
func (d *DashboardClient) RecentActivity(ctx context.Context, limite int) ([]Activity, error) {
	var out struct {
		Atividades []Activity `json:"atividades"`
	}
	if err := d.c.Get(ctx, dashboardPath+"/ultimas-atividades", optionalInt("limite", limite), &out); err != nil {
		return nil, err
	}
	return out.Atividades, nil
}

func optionalInt(key string, v int) url.Values {
	if v <= 0 {
		return nil
	}
	return url.Values{key: []string{strconv.Itoa(v)}}
}
