package points

import (
	"net/url"
	"strings"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

type pointForm struct {
	TagPontoMedicao              string `form:"tag_ponto_medicao" validate:"required,max=100"`
	NomePontoMedicao             string `form:"nome_ponto_medicao" validate:"required,max=200"`
	PoloID                       string `form:"polo_id" validate:"omitempty,number"`
	ClassificacaoID              string `form:"classificacao_id" validate:"omitempty,number"`
	NumeroSerieEquipamento       string `form:"numero_serie_equipamento" validate:"max=100"`
	CertificadoCalibracaoVigente string `form:"certificado_calibracao_vigente" validate:"max=100"`
	DataUltimaCalibracao         string `form:"data_ultima_calibracao" validate:"isodate"`
	DataProximaCalibracao        string `form:"data_proxima_calibracao" validate:"isodate"`
	FrequenciaCalibracaoANP      string `form:"frequencia_calibracao_anp" validate:"omitempty,number"`
	DataRetirada                 string `form:"data_retirada" validate:"isodate"`
	DataRecebimentoUso           string `form:"data_recebimento_uso" validate:"isodate"`
	ControleVencimento           string `form:"controle_vencimento" validate:"max=100"`
	SolicitacaoCalibracao        string `form:"solicitacao_calibracao" validate:"max=100"`
}

func parseForm(values url.Values) pointForm {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }
	return pointForm{
		TagPontoMedicao:              get("tag_ponto_medicao"),
		NomePontoMedicao:             get("nome_ponto_medicao"),
		PoloID:                       get("polo_id"),
		ClassificacaoID:              get("classificacao_id"),
		NumeroSerieEquipamento:       get("numero_serie_equipamento"),
		CertificadoCalibracaoVigente: get("certificado_calibracao_vigente"),
		DataUltimaCalibracao:         get("data_ultima_calibracao"),
		DataProximaCalibracao:        get("data_proxima_calibracao"),
		FrequenciaCalibracaoANP:      get("frequencia_calibracao_anp"),
		DataRetirada:                 get("data_retirada"),
		DataRecebimentoUso:           get("data_recebimento_uso"),
		ControleVencimento:           get("controle_vencimento"),
		SolicitacaoCalibracao:        get("solicitacao_calibracao"),
	}
}

func (f pointForm) input() backend.MeasurementPointInput {
	return backend.MeasurementPointInput{
		PoloID:                       shared.OptionalInt(f.PoloID),
		NomePontoMedicao:             f.NomePontoMedicao,
		TagPontoMedicao:              f.TagPontoMedicao,
		ClassificacaoID:              shared.OptionalInt(f.ClassificacaoID),
		NumeroSerieEquipamento:       shared.OptionalString(f.NumeroSerieEquipamento),
		CertificadoCalibracaoVigente: shared.OptionalString(f.CertificadoCalibracaoVigente),
		DataUltimaCalibracao:         shared.OptionalString(f.DataUltimaCalibracao),
		DataProximaCalibracao:        shared.OptionalString(f.DataProximaCalibracao),
		FrequenciaCalibracaoANP:      shared.OptionalInt(f.FrequenciaCalibracaoANP),
		DataRetirada:                 shared.OptionalString(f.DataRetirada),
		DataRecebimentoUso:           shared.OptionalString(f.DataRecebimentoUso),
		ControleVencimento:           shared.OptionalString(f.ControleVencimento),
		SolicitacaoCalibracao:        shared.OptionalString(f.SolicitacaoCalibracao),
	}
}

// dateInput trims a backend date down to what an <input type="date"> accepts.
func dateInput(raw string) string {
	if len(raw) >= 10 && raw[4] == '-' && raw[7] == '-' {
		return raw[:10]
	}
	return raw
}

func formFromPoint(p *backend.MeasurementPoint) pointForm {
	return pointForm{
		TagPontoMedicao:              p.TagPontoMedicao,
		NomePontoMedicao:             p.NomePontoMedicao,
		PoloID:                       shared.FormatInt(p.PoloID),
		ClassificacaoID:              shared.FormatInt(p.ClassificacaoID),
		NumeroSerieEquipamento:       p.NumeroSerieEquipamento,
		CertificadoCalibracaoVigente: p.CertificadoCalibracaoVigente,
		DataUltimaCalibracao:         dateInput(p.DataUltimaCalibracao),
		DataProximaCalibracao:        dateInput(p.DataProximaCalibracao),
		FrequenciaCalibracaoANP:      shared.FormatInt(p.FrequenciaCalibracaoANP),
		DataRetirada:                 dateInput(p.DataRetirada),
		DataRecebimentoUso:           dateInput(p.DataRecebimentoUso),
		ControleVencimento:           p.ControleVencimento,
		SolicitacaoCalibracao:        p.SolicitacaoCalibracao,
	}
}
