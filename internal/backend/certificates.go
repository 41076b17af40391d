package backend

import "context"

const certificatesPath = "/api/certificados"

// Certificate is a calibration certificate issued for one equipment.
type Certificate struct {
	ID                     int    `json:"id"`
	NumeroSerieEquipamento string `json:"numero_serie_equipamento"`
	EquipamentoNome        string `json:"equipamento_nome"`
	NumeroCertificado      string `json:"numero_certificado"`
	RevisaoCertificado     string `json:"revisao_certificado"`
	DataCertificado        string `json:"data_certificado"`
	StatusCertificadoID    *int   `json:"status_certificado_id"`
	StatusCertificado      string `json:"status_certificado"`
	CaminhoArquivo         string `json:"caminho_arquivo"`
}

// CertificateInput is the create/update payload.
type CertificateInput struct {
	NumeroSerieEquipamento string  `json:"numero_serie_equipamento"`
	NumeroCertificado      string  `json:"numero_certificado"`
	RevisaoCertificado     *string `json:"revisao_certificado"`
	DataCertificado        string  `json:"data_certificado"`
	StatusCertificadoID    *int    `json:"status_certificado_id"`
	CaminhoArquivo         *string `json:"caminho_arquivo"`
}

// CertificatesClient maps certificate operations to backend calls.
type CertificatesClient struct {
	c *Client
}

// NewCertificatesClient constructs a CertificatesClient.
func NewCertificatesClient(c *Client) *CertificatesClient {
	return &CertificatesClient{c: c}
}

// List returns one page of certificates.
func (cc *CertificatesClient) List(ctx context.Context, params Params) (*Page[Certificate], error) {
	var env struct {
		Items []Certificate `json:"certificados"`
		PageMeta
	}
	if err := cc.c.Get(ctx, certificatesPath, params.Values(), &env); err != nil {
		return nil, err
	}
	return newPage(env.Items, env.PageMeta), nil
}

// Get fetches one certificate.
func (cc *CertificatesClient) Get(ctx context.Context, id string) (*Certificate, error) {
	var out Certificate
	if err := cc.c.Get(ctx, certificatesPath+"/"+pathID(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registers a certificate.
func (cc *CertificatesClient) Create(ctx context.Context, input CertificateInput) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Post(ctx, certificatesPath, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a certificate.
func (cc *CertificatesClient) Update(ctx context.Context, id string, input CertificateInput) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Put(ctx, certificatesPath+"/"+pathID(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a certificate.
func (cc *CertificatesClient) Delete(ctx context.Context, id string) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Delete(ctx, certificatesPath+"/"+pathID(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByEquipment returns every certificate of one equipment.
func (cc *CertificatesClient) ListByEquipment(ctx context.Context, serial string) ([]Certificate, error) {
	var env struct {
		Items []Certificate `json:"certificados"`
		Total int           `json:"total"`
	}
	if err := cc.c.Get(ctx, certificatesPath+"/equipamento/"+pathID(serial), nil, &env); err != nil {
		return nil, err
	}
	for i := range env.Items {
		env.Items[i].NumeroSerieEquipamento = serial
	}
	return env.Items, nil
}
