package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/httpclient"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
)

const DefaultViaCEPURL = "https://viacep.com.br/ws"

type viaCEPResponse struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`
	// Erro is true (or "true") when the code does not exist.
	Erro json.RawMessage `json:"erro"`
}

func (r viaCEPResponse) notFound() bool {
	v := strings.Trim(strings.TrimSpace(string(r.Erro)), `"`)
	return v != "" && v != "false"
}

// ViaCEP looks up CEPs through viacep.com.br. It never returns coordinates.
type ViaCEP struct {
	client  *httpclient.Client
	baseURL string
}

func NewViaCEP(client *httpclient.Client, baseURL string) *ViaCEP {
	if baseURL == "" {
		baseURL = DefaultViaCEPURL
	}
	return &ViaCEP{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (v *ViaCEP) Name() string { return "viacep" }

func (v *ViaCEP) Lookup(ctx context.Context, postalCode string) (_ ports.PostalRecord, err error) {
	defer obs.Time(ctx, "viacep.Lookup")(&err)
	defer countCall(v.Name(), &err)

	var data viaCEPResponse
	if err := v.client.GetJSON(ctx, v.baseURL+"/"+postalCode+"/json/", &data); err != nil {
		return ports.PostalRecord{}, fmt.Errorf("viacep %s: %w", postalCode, err)
	}
	if data.notFound() {
		return ports.PostalRecord{}, fmt.Errorf("viacep %s: %w", postalCode, domain.ErrNotFound)
	}

	return ports.PostalRecord{
		PostalCode:   postalCode,
		Street:       data.Logradouro,
		Neighborhood: data.Bairro,
		City:         data.Localidade,
		State:        data.UF,
	}, nil
}
