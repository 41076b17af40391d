package certificates

import (
	"net/url"
	"strings"

	"github.com/equip-manager/equip-console/internal/backend"
	"github.com/equip-manager/equip-console/internal/shared"
)

type certificateForm struct {
	NumeroSerieEquipamento string `form:"numero_serie_equipamento" validate:"required,max=100"`
	NumeroCertificado      string `form:"numero_certificado" validate:"required,max=100"`
	RevisaoCertificado     string `form:"revisao_certificado" validate:"max=20"`
	DataCertificado        string `form:"data_certificado" validate:"required,isodate"`
	StatusCertificadoID    string `form:"status_certificado_id" validate:"omitempty,number"`
	CaminhoArquivo         string `form:"caminho_arquivo" validate:"max=500"`
}

func parseForm(values url.Values) certificateForm {
	get := func(key string) string { return strings.TrimSpace(values.Get(key)) }
	return certificateForm{
		NumeroSerieEquipamento: get("numero_serie_equipamento"),
		NumeroCertificado:      get("numero_certificado"),
		RevisaoCertificado:     get("revisao_certificado"),
		DataCertificado:        get("data_certificado"),
		StatusCertificadoID:    get("status_certificado_id"),
		CaminhoArquivo:         get("caminho_arquivo"),
	}
}

func (f certificateForm) input() backend.CertificateInput {
	return backend.CertificateInput{
		NumeroSerieEquipamento: f.NumeroSerieEquipamento,
		NumeroCertificado:      f.NumeroCertificado,
		RevisaoCertificado:     shared.OptionalString(f.RevisaoCertificado),
		DataCertificado:        f.DataCertificado,
		StatusCertificadoID:    shared.OptionalInt(f.StatusCertificadoID),
		CaminhoArquivo:         shared.OptionalString(f.CaminhoArquivo),
	}
}

func formFromCertificate(c *backend.Certificate) certificateForm {
	date := c.DataCertificado
	if len(date) > 10 && date[4] == '-' {
		date = date[:10]
	}
	return certificateForm{
		NumeroSerieEquipamento: c.NumeroSerieEquipamento,
		NumeroCertificado:      c.NumeroCertificado,
		RevisaoCertificado:     c.RevisaoCertificado,
		DataCertificado:        date,
		StatusCertificadoID:    shared.FormatInt(c.StatusCertificadoID),
		CaminhoArquivo:         c.CaminhoArquivo,
	}
}
