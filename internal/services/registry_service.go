// internal/services/registry_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

// RegistryService resolves company ids through BrasilAPI.
type RegistryService struct {
	client  *http.Client
	baseURL string
	cache   LookupCache
	hitTTL  time.Duration
	missTTL time.Duration
}

func NewRegistryService(cfg config.LookupConfig, cache LookupCache) *RegistryService {
	return &RegistryService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BrasilAPIURL, "/"),
		cache:   cache,
		hitTTL:  cfg.HitTTL,
		missTTL: cfg.MissTTL,
	}
}

// flexString accepts JSON strings and numbers; BrasilAPI is not consistent
// about the type of numeric-looking fields such as cep.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

type brasilAPICompany struct {
	RazaoSocial                string     `json:"razao_social"`
	NomeFantasia               string     `json:"nome_fantasia"`
	CNAEFiscalDescricao        string     `json:"cnae_fiscal_descricao"`
	DescricaoSituacaoCadastral string     `json:"descricao_situacao_cadastral"`
	Porte                      string     `json:"porte"`
	NaturezaJuridica           string     `json:"natureza_juridica"`
	Logradouro                 string     `json:"logradouro"`
	Numero                     flexString `json:"numero"`
	Complemento                string     `json:"complemento"`
	Bairro                     string     `json:"bairro"`
	Municipio                  string     `json:"municipio"`
	UF                         string     `json:"uf"`
	CEP                        flexString `json:"cep"`
}

func (c brasilAPICompany) snapshot() *wizard.RegistrySnapshot {
	legalName := c.RazaoSocial
	if legalName == "" {
		legalName = c.NomeFantasia
	}
	return &wizard.RegistrySnapshot{
		LegalName:       legalName,
		TradeName:       c.NomeFantasia,
		PrimaryActivity: c.CNAEFiscalDescricao,
		Status:          c.DescricaoSituacaoCadastral,
		Size:            c.Porte,
		LegalNature:     c.NaturezaJuridica,
		Address: wizard.Address{
			PostalCode:   utils.FormatCEP(string(c.CEP)),
			Street:       c.Logradouro,
			Number:       string(c.Numero),
			Complement:   c.Complemento,
			Neighborhood: c.Bairro,
			City:         c.Municipio,
			State:        utils.FormatStateCode(c.UF),
		},
	}
}

func (s *RegistryService) LookupCompany(ctx context.Context, companyID string) (*wizard.RegistrySnapshot, error) {
	cnpj := utils.OnlyDigits(companyID)
	if !utils.ValidateCNPJ(cnpj) {
		return nil, fmt.Errorf("%w: company id %q", ErrInvalidLookupKey, companyID)
	}
	return cachedLookup(ctx, s.cache, "registry", "cnpj:"+cnpj, s.hitTTL, s.missTTL, func(ctx context.Context) (*wizard.RegistrySnapshot, error) {
		return s.fetch(ctx, cnpj)
	})
}

func (s *RegistryService) fetch(ctx context.Context, cnpj string) (*wizard.RegistrySnapshot, error) {
	url := fmt.Sprintf("%s/api/cnpj/v1/%s", s.baseURL, cnpj)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brasilapi request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, wizard.ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("brasilapi returned status %d", resp.StatusCode)
	}

	var body brasilAPICompany
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("brasilapi decode: %w", err)
	}
	return body.snapshot(), nil
}
