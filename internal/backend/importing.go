package backend

import (
	"context"
	"io"
)

const importPath = "/api/importacao"

// Dataset identifies what an import or export carries.
type Dataset string

// Datasets accepted by the import/export endpoints.
const (
	DatasetEquipment Dataset = "equipamentos"
	DatasetPoints    Dataset = "pontos-medicao"
)

// ParseDataset validates a dataset taken from a URL.
func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(s) {
	case DatasetEquipment, DatasetPoints:
		return Dataset(s), true
	}
	return "", false
}

// ImportResult summarises one spreadsheet import.
type ImportResult struct {
	Message                string   `json:"message"`
	EquipamentosImportados int      `json:"equipamentos_importados"`
	EquipamentosErro       int      `json:"equipamentos_erro"`
	PontosImportados       int      `json:"pontos_importados"`
	PontosErro             int      `json:"pontos_erro"`
	Erros                  []string `json:"erros"`
}

// Imported returns the number of rows accepted regardless of dataset.
func (r ImportResult) Imported() int {
	return r.EquipamentosImportados + r.PontosImportados
}

// Failed returns the number of rows rejected regardless of dataset.
func (r ImportResult) Failed() int {
	return r.EquipamentosErro + r.PontosErro
}

// ImportClient maps spreadsheet import and export to backend calls.
type ImportClient struct {
	c *Client
}

// NewImportClient constructs an ImportClient.
func NewImportClient(c *Client) *ImportClient {
	return &ImportClient{c: c}
}

// Import uploads a spreadsheet for the given dataset.
func (ic *ImportClient) Import(ctx context.Context, dataset Dataset, filename string, content io.Reader) (*ImportResult, error) {
	var out ImportResult
	upload := Upload{Field: "file", Filename: filename, Content: content}
	if err := ic.c.Upload(ctx, importPath+"/"+string(dataset), upload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportURL is where browsers download the dataset spreadsheet.
func (ic *ImportClient) ExportURL(dataset Dataset) string {
	return ic.c.PublicURL(importPath + "/exportar-" + string(dataset))
}

// TemplateURL is where browsers download an empty import template.
func (ic *ImportClient) TemplateURL(dataset Dataset) string {
	return ic.c.PublicURL(importPath + "/template-" + string(dataset))
}
