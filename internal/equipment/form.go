package equipment

import (
	"net/url"
	"strings"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

type equipmentForm struct {
	NumeroSerie            string `form:"numero_serie" validate:"required,max=100"`
	TagEquipamento         string `form:"tag_equipamento" validate:"max=100"`
	NomeEquipamento        string `form:"nome_equipamento" validate:"required,max=200"`
	FabricanteID           string `form:"fabricante_id" validate:"omitempty,number"`
	ModeloID               string `form:"modelo_id" validate:"omitempty,number"`
	TipoEquipamentoID      string `form:"tipo_equipamento_id" validate:"omitempty,number"`
	UnidadeID              string `form:"unidade_id" validate:"omitempty,number"`
	Resolucao              string `form:"resolucao" validate:"decimal"`
	FaixaMinimaEquipamento string `form:"faixa_minima_equipamento" validate:"decimal"`
	FaixaMaximaEquipamento string `form:"faixa_maxima_equipamento" validate:"decimal"`
	FaixaMinimaPAM         string `form:"faixa_minima_pam" validate:"decimal"`
	FaixaMaximaPAM         string `form:"faixa_maxima_pam" validate:"decimal"`
	FaixaMinimaCalibrada   string `form:"faixa_minima_calibrada" validate:"decimal"`
	FaixaMaximaCalibrada   string `form:"faixa_maxima_calibrada" validate:"decimal"`
	CondicoesAmbientais    string `form:"condicoes_ambientais" validate:"max=500"`
	ErroMaximoAdmissivel   string `form:"erro_maximo_admissivel" validate:"decimal"`
	CriterioAceitacaoID    string `form:"criterio_aceitacao_id" validate:"omitempty,number"`
	SoftwareVersao         string `form:"software_versao" validate:"max=50"`
}

func parseForm(values url.Values) equipmentForm {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }
	return equipmentForm{
		NumeroSerie:            get("numero_serie"),
		TagEquipamento:         get("tag_equipamento"),
		NomeEquipamento:        get("nome_equipamento"),
		FabricanteID:           get("fabricante_id"),
		ModeloID:               get("modelo_id"),
		TipoEquipamentoID:      get("tipo_equipamento_id"),
		UnidadeID:              get("unidade_id"),
		Resolucao:              get("resolucao"),
		FaixaMinimaEquipamento: get("faixa_minima_equipamento"),
		FaixaMaximaEquipamento: get("faixa_maxima_equipamento"),
		FaixaMinimaPAM:         get("faixa_minima_pam"),
		FaixaMaximaPAM:         get("faixa_maxima_pam"),
		FaixaMinimaCalibrada:   get("faixa_minima_calibrada"),
		FaixaMaximaCalibrada:   get("faixa_maxima_calibrada"),
		CondicoesAmbientais:    get("condicoes_ambientais"),
		ErroMaximoAdmissivel:   get("erro_maximo_admissivel"),
		CriterioAceitacaoID:    get("criterio_aceitacao_id"),
		SoftwareVersao:         get("software_versao"),
	}
}

// input converts the form; blank optional fields become null.
func (f equipmentForm) input() backend.EquipmentInput {
	return backend.EquipmentInput{
		NumeroSerie:            f.NumeroSerie,
		TagEquipamento:         shared.OptionalString(f.TagEquipamento),
		NomeEquipamento:        f.NomeEquipamento,
		FabricanteID:           shared.OptionalInt(f.FabricanteID),
		ModeloID:               shared.OptionalInt(f.ModeloID),
		TipoEquipamentoID:      shared.OptionalInt(f.TipoEquipamentoID),
		UnidadeID:              shared.OptionalInt(f.UnidadeID),
		Resolucao:              shared.OptionalFloat(f.Resolucao),
		FaixaMinimaEquipamento: shared.OptionalFloat(f.FaixaMinimaEquipamento),
		FaixaMaximaEquipamento: shared.OptionalFloat(f.FaixaMaximaEquipamento),
		FaixaMinimaPAM:         shared.OptionalFloat(f.FaixaMinimaPAM),
		FaixaMaximaPAM:         shared.OptionalFloat(f.FaixaMaximaPAM),
		FaixaMinimaCalibrada:   shared.OptionalFloat(f.FaixaMinimaCalibrada),
		FaixaMaximaCalibrada:   shared.OptionalFloat(f.FaixaMaximaCalibrada),
		CondicoesAmbientais:    shared.OptionalString(f.CondicoesAmbientais),
		ErroMaximoAdmissivel:   shared.OptionalFloat(f.ErroMaximoAdmissivel),
		CriterioAceitacaoID:    shared.OptionalInt(f.CriterioAceitacaoID),
		SoftwareVersao:         shared.OptionalString(f.SoftwareVersao),
	}
}

func formFromEquipment(e *backend.Equipment) equipmentForm {
	return equipmentForm{
		NumeroSerie:            e.NumeroSerie,
		TagEquipamento:         e.TagEquipamento,
		NomeEquipamento:        e.NomeEquipamento,
		FabricanteID:           shared.FormatInt(e.FabricanteID),
		ModeloID:               shared.FormatInt(e.ModeloID),
		TipoEquipamentoID:      shared.FormatInt(e.TipoEquipamentoID),
		UnidadeID:              shared.FormatInt(e.UnidadeID),
		Resolucao:              shared.FormatFloat(e.Resolucao),
		FaixaMinimaEquipamento: shared.FormatFloat(e.FaixaMinimaEquipamento),
		FaixaMaximaEquipamento: shared.FormatFloat(e.FaixaMaximaEquipamento),
		FaixaMinimaPAM:         shared.FormatFloat(e.FaixaMinimaPAM),
		FaixaMaximaPAM:         shared.FormatFloat(e.FaixaMaximaPAM),
		FaixaMinimaCalibrada:   shared.FormatFloat(e.FaixaMinimaCalibrada),
		FaixaMaximaCalibrada:   shared.FormatFloat(e.FaixaMaximaCalibrada),
		CondicoesAmbientais:    e.CondicoesAmbientais,
		ErroMaximoAdmissivel:   shared.FormatFloat(e.ErroMaximoAdmissivel),
		CriterioAceitacaoID:    shared.FormatInt(e.CriterioAceitacaoID),
		SoftwareVersao:         e.SoftwareVersao,
	}
}
