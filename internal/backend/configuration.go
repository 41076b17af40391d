package backend

import (
	"context"
	"fmt"
)

const configPath = "/api/configuracoes"

// Category is one kind of reference data.
type Category struct {
	// Key is the field name in the full snapshot.
	Key   string
	// Path is the endpoint segment under /api/configuracoes.
	Path  string
	Title string
}

// Categories lists every reference data category in display order.
var Categories = []Category{
	{Key: "fabricantes", Path: "fabricantes", Title: "Fabricantes"},
	{Key: "tipos_equipamento", Path: "tipos-equipamento", Title: "Tipos de Equipamento"},
	{Key: "polos", Path: "polos", Title: "Polos"},
	{Key: "instalacoes", Path: "instalacoes", Title: "Instalações"},
	{Key: "unidades", Path: "unidades", Title: "Unidades"},
	{Key: "classificacoes_ponto_medicao", Path: "classificacoes-ponto-medicao", Title: "Classificações de Ponto de Medição"},
	{Key: "status", Path: "status", Title: "Status de Certificado"},
	{Key: "criterios_aceitacao", Path: "criterios-aceitacao", Title: "Critérios de Aceitação"},
}

// LookupCategory finds a category by key or endpoint segment.
func LookupCategory(name string) (Category, bool) {
	for _, cat := range Categories {
		if cat.Key == name || cat.Path == name {
			return cat, true
		}
	}
	return Category{}, false
}

// ConfigItem is one reference data record.
type ConfigItem struct {
	ID     int    `json:"id"`
	Nome   string `json:"nome"`
	PoloID *int   `json:"polo_id,omitempty"`
	Polo   string `json:"polo,omitempty"`
}

// ConfigInput is the create/update payload for reference data.
type ConfigInput struct {
	Nome   string `json:"nome"`
	PoloID *int   `json:"polo_id,omitempty"`
}

// Configuration maps category keys to their records.
type Configuration map[string][]ConfigItem

// ConfigClient maps reference data operations to backend calls.
type ConfigClient struct {
	c *Client
}

// NewConfigClient constructs a ConfigClient.
func NewConfigClient(c *Client) *ConfigClient {
	return &ConfigClient{c: c}
}

// All fetches every category in one call.
func (cc *ConfigClient) All(ctx context.Context) (Configuration, error) {
	out := Configuration{}
	if err := cc.c.Get(ctx, configPath+"/todas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List fetches the records of one category.
func (cc *ConfigClient) List(ctx context.Context, cat Category) ([]ConfigItem, error) {
	var out []ConfigItem
	if err := cc.c.Get(ctx, categoryPath(cat), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create adds a record to a category.
func (cc *ConfigClient) Create(ctx context.Context, cat Category, input ConfigInput) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Post(ctx, categoryPath(cat), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update renames a record.
func (cc *ConfigClient) Update(ctx context.Context, cat Category, id int, input ConfigInput) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Put(ctx, fmt.Sprintf("%s/%d", categoryPath(cat), id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record.
func (cc *ConfigClient) Delete(ctx context.Context, cat Category, id int) (*MutationResult, error) {
	var out MutationResult
	if err := cc.c.Delete(ctx, fmt.Sprintf("%s/%d", categoryPath(cat), id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func categoryPath(cat Category) string {
	return configPath + "/" + cat.Path
}
