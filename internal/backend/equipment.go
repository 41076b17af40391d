package backend

import "context"

const equipmentPath = "/api/equipamentos"

// Equipment is a measurement instrument identified by its serial number.
type Equipment struct {
	NumeroSerie            string   `json:"numero_serie"`
	TagEquipamento         string   `json:"tag_equipamento"`
	NomeEquipamento        string   `json:"nome_equipamento"`
	FabricanteID           *int     `json:"fabricante_id"`
	Fabricante             string   `json:"fabricante"`
	ModeloID               *int     `json:"modelo_id"`
	Modelo                 string   `json:"modelo"`
	TipoEquipamentoID      *int     `json:"tipo_equipamento_id"`
	TipoEquipamento        string   `json:"tipo_equipamento"`
	UnidadeID              *int     `json:"unidade_id"`
	Unidade                string   `json:"unidade"`
	Resolucao              *float64 `json:"resolucao"`
	FaixaMinimaEquipamento *float64 `json:"faixa_minima_equipamento"`
	FaixaMaximaEquipamento *float64 `json:"faixa_maxima_equipamento"`
	FaixaMinimaPAM         *float64 `json:"faixa_minima_pam"`
	FaixaMaximaPAM         *float64 `json:"faixa_maxima_pam"`
	FaixaMinimaCalibrada   *float64 `json:"faixa_minima_calibrada"`
	FaixaMaximaCalibrada   *float64 `json:"faixa_maxima_calibrada"`
	CondicoesAmbientais    string   `json:"condicoes_ambientais"`
	ErroMaximoAdmissivel   *float64 `json:"erro_maximo_admissivel"`
	CriterioAceitacaoID    *int     `json:"criterio_aceitacao_id"`
	CriterioAceitacao      string   `json:"criterio_aceitacao"`
	SoftwareVersao         string   `json:"software_versao"`
}

// EquipmentInput is the create/update payload. Nil fields are sent as null.
type EquipmentInput struct {
	NumeroSerie            string   `json:"numero_serie"`
	TagEquipamento         *string  `json:"tag_equipamento"`
	NomeEquipamento        string   `json:"nome_equipamento"`
	FabricanteID           *int     `json:"fabricante_id"`
	ModeloID               *int     `json:"modelo_id"`
	TipoEquipamentoID      *int     `json:"tipo_equipamento_id"`
	UnidadeID              *int     `json:"unidade_id"`
	Resolucao              *float64 `json:"resolucao"`
	FaixaMinimaEquipamento *float64 `json:"faixa_minima_equipamento"`
	FaixaMaximaEquipamento *float64 `json:"faixa_maxima_equipamento"`
	FaixaMinimaPAM         *float64 `json:"faixa_minima_pam"`
	FaixaMaximaPAM         *float64 `json:"faixa_maxima_pam"`
	FaixaMinimaCalibrada   *float64 `json:"faixa_minima_calibrada"`
	FaixaMaximaCalibrada   *float64 `json:"faixa_maxima_calibrada"`
	CondicoesAmbientais    *string  `json:"condicoes_ambientais"`
	ErroMaximoAdmissivel   *float64 `json:"erro_maximo_admissivel"`
	CriterioAceitacaoID    *int     `json:"criterio_aceitacao_id"`
	SoftwareVersao         *string  `json:"software_versao"`
}

// NameCount is one bucket of a grouped count.
type NameCount struct {
	Nome  string `json:"nome"`
	Count int    `json:"count"`
}

// EquipmentStats groups equipment by manufacturer and type.
type EquipmentStats struct {
	TotalEquipamentos int         `json:"total_equipamentos"`
	PorFabricante     []NameCount `json:"por_fabricante"`
	PorTipo           []NameCount `json:"por_tipo"`
}

// EquipmentClient maps equipment operations to backend calls.
type EquipmentClient struct {
	c *Client
}

// NewEquipmentClient constructs an EquipmentClient.
func NewEquipmentClient(c *Client) *EquipmentClient {
	return &EquipmentClient{c: c}
}

// List returns one page of equipment.
func (e *EquipmentClient) List(ctx context.Context, params Params) (*Page[Equipment], error) {
	var env struct {
		Items []Equipment `json:"equipamentos"`
		PageMeta
	}
	if err := e.c.Get(ctx, equipmentPath, params.Values(), &env); err != nil {
		return nil, err
	}
	return newPage(env.Items, env.PageMeta), nil
}

// Get fetches one equipment by serial number.
func (e *EquipmentClient) Get(ctx context.Context, serial string) (*Equipment, error) {
	var out Equipment
	if err := e.c.Get(ctx, equipmentPath+"/"+pathID(serial), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers new equipment.
func (e *EquipmentClient) Create(ctx context.Context, input EquipmentInput) (*MutationResult, error) {
	var out MutationResult
	if err := e.c.Post(ctx, equipmentPath, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the equipment identified by serial.
func (e *EquipmentClient) Update(ctx context.Context, serial string, input EquipmentInput) (*MutationResult, error) {
	var out MutationResult
	if err := e.c.Put(ctx, equipmentPath+"/"+pathID(serial), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the equipment identified by serial.
func (e *EquipmentClient) Delete(ctx context.Context, serial string) (*MutationResult, error) {
	var out MutationResult
	if err := e.c.Delete(ctx, equipmentPath+"/"+pathID(serial), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns equipment counts grouped by manufacturer and type.
func (e *EquipmentClient) Stats(ctx context.Context) (*EquipmentStats, error) {
	var out EquipmentStats
	if err := e.c.Get(ctx, equipmentPath+"/estatisticas", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
