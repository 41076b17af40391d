package backend

import (
	"context"
	"net/url"
	"strconv"
)

const pointsPath = "/api/pontos-medicao"

// MeasurementPoint is a location where equipment is installed and calibrated.
type MeasurementPoint struct {
	ID                           int    `json:"id"`
	PoloID                       *int   `json:"polo_id"`
	Polo                         string `json:"polo"`
	NomePontoMedicao             string `json:"nome_ponto_medicao"`
	TagPontoMedicao              string `json:"tag_ponto_medicao"`
	ClassificacaoID              *int   `json:"classificacao_id"`
	Classificacao                string `json:"classificacao"`
	NumeroSerieEquipamento       string `json:"numero_serie_equipamento"`
	EquipamentoNome              string `json:"equipamento_nome"`
	CertificadoCalibracaoVigente string `json:"certificado_calibracao_vigente"`
	DataUltimaCalibracao         string `json:"data_ultima_calibracao"`
	DataProximaCalibracao        string `json:"data_proxima_calibracao"`
	FrequenciaCalibracaoANP      *int   `json:"frequencia_calibracao_anp"`
	DataRetirada                 string `json:"data_retirada"`
	DataRecebimentoUso           string `json:"data_recebimento_uso"`
	ControleVencimento           string `json:"controle_vencimento"`
	SolicitacaoCalibracao        string `json:"solicitacao_calibracao"`
	StatusCalibracao             string `json:"status_calibracao"`
}

// MeasurementPointInput is the create/update payload. Nil fields are sent as null.
type MeasurementPointInput struct {
	PoloID                       *int    `json:"polo_id"`
	NomePontoMedicao             string  `json:"nome_ponto_medicao"`
	TagPontoMedicao              string  `json:"tag_ponto_medicao"`
	ClassificacaoID              *int    `json:"classificacao_id"`
	NumeroSerieEquipamento       *string `json:"numero_serie_equipamento"`
	CertificadoCalibracaoVigente *string `json:"certificado_calibracao_vigente"`
	DataUltimaCalibracao         *string `json:"data_ultima_calibracao"`
	DataProximaCalibracao        *string `json:"data_proxima_calibracao"`
	FrequenciaCalibracaoANP      *int    `json:"frequencia_calibracao_anp"`
	DataRetirada                 *string `json:"data_retirada"`
	DataRecebimentoUso           *string `json:"data_recebimento_uso"`
	ControleVencimento           *string `json:"controle_vencimento"`
	SolicitacaoCalibracao        *string `json:"solicitacao_calibracao"`
}

// AlertPoint is a measurement point listed in calibration alerts.
type AlertPoint struct {
	ID                     int    `json:"id"`
	TagPontoMedicao        string `json:"tag_ponto_medicao"`
	NomePontoMedicao       string `json:"nome_ponto_medicao"`
	DataProximaCalibracao  string `json:"data_proxima_calibracao"`
	NumeroSerieEquipamento string `json:"numero_serie_equipamento"`
	EquipamentoNome        string `json:"equipamento_nome"`
	Polo                   string `json:"polo"`
	DiasRestantes          *int   `json:"dias_restantes"`
}

// CalibrationAlerts lists overdue and soon-due points.
type CalibrationAlerts struct {
	Vencidos      []AlertPoint `json:"pontos_vencidos"`
	Proximos      []AlertPoint `json:"pontos_proximos_vencimento"`
	TotalVencidos int          `json:"total_vencidos"`
	TotalProximos int          `json:"total_proximos"`
}

// PointsClient maps measurement point operations to backend calls.
type PointsClient struct {
	c *Client
}

// NewPointsClient constructs a PointsClient.
func NewPointsClient(c *Client) *PointsClient {
	return &PointsClient{c: c}
}

// List returns one page of measurement points.
func (p *PointsClient) List(ctx context.Context, params Params) (*Page[MeasurementPoint], error) {
	var env struct {
		Items []MeasurementPoint `json:"pontos_medicao"`
		PageMeta
	}
	if err := p.c.Get(ctx, pointsPath, params.Values(), &env); err != nil {
		return nil, err
	}
	return newPage(env.Items, env.PageMeta), nil
}

// Get fetches one measurement point.
func (p *PointsClient) Get(ctx context.Context, id string) (*MeasurementPoint, error) {
	var out MeasurementPoint
	if err := p.c.Get(ctx, pointsPath+"/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers a measurement point.
func (p *PointsClient) Create(ctx context.Context, input MeasurementPointInput) (*MutationResult, error) {
	var out MutationResult
	if err := p.c.Post(ctx, pointsPath, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a measurement point.
func (p *PointsClient) Update(ctx context.Context, id string, input MeasurementPointInput) (*MutationResult, error) {
	var out MutationResult
	if err := p.c.Put(ctx, pointsPath+"/"+pathID(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a measurement point.
func (p *PointsClient) Delete(ctx context.Context, id string) (*MutationResult, error) {
	var out MutationResult
	if err := p.c.Delete(ctx, pointsPath+"/"+pathID(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CalibrationAlerts lists points overdue or due within dias days.
func (p *PointsClient) CalibrationAlerts(ctx context.Context, dias int) (*CalibrationAlerts, error) {
	query := url.Values{}
	if dias > 0 {
		query.Set("dias", strconv.Itoa(dias))
	}
	var out CalibrationAlerts
	if err := p.c.Get(ctx, pointsPath+"/alertas-calibracao", query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
