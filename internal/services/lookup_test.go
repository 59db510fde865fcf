package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

func lookupConfig(url string) config.LookupConfig {
	return config.LookupConfig{
		ViaCEPURL:    url,
		BrasilAPIURL: url,
		Timeout:      2 * time.Second,
		HitTTL:       time.Hour,
		MissTTL:      time.Minute,
	}
}

func TestAddressServiceMapsViaCEP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/01310100/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer srv.Close()

	svc := NewAddressService(lookupConfig(srv.URL), nil)
	got, err := svc.LookupAddress(context.Background(), "01310-100")
	require.NoError(t, err)
	assert.Equal(t, &wizard.AddressResult{
		Street:       "Avenida Paulista",
		Neighborhood: "Bela Vista",
		City:         "São Paulo",
		State:        "SP",
	}, got)
}

func TestAddressServiceNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"erro flag", http.StatusOK, `{"erro": true}`},
		{"erro string", http.StatusOK, `{"erro": "true"}`},
		{"bad request", http.StatusBadRequest, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAddressService(lookupConfig(srv.URL), nil).LookupAddress(context.Background(), "99999999")
			assert.ErrorIs(t, err, wizard.ErrNotFound)
		})
	}
}

func TestAddressServiceTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAddressService(lookupConfig(srv.URL), nil).LookupAddress(context.Background(), "01310100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, wizard.ErrNotFound)
}

func TestAddressServiceRejectsShortKey(t *testing.T) {
	_, err := NewAddressService(lookupConfig("http://127.0.0.1:1"), nil).LookupAddress(context.Background(), "0131")
	assert.ErrorIs(t, err, ErrInvalidLookupKey)
}

func TestAddressServiceCachesHits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"logradouro":"Avenida Rio Branco","bairro":"Centro","localidade":"Rio de Janeiro","uf":"RJ"}`))
	}))
	defer srv.Close()

	client, mr := setupRedis(t)
	svc := NewAddressService(lookupConfig(srv.URL), NewRedisLookupCache(client))

	for i := 0; i < 3; i++ {
		got, err := svc.LookupAddress(context.Background(), "20040-002")
		require.NoError(t, err)
		assert.Equal(t, "Centro", got.Neighborhood)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists("lookup:cep:20040002"))
	assert.Equal(t, time.Hour, mr.TTL("lookup:cep:20040002"))
}

func TestRegistryServiceMapsBrasilAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cnpj/v1/11222333000181", r.URL.Path)
		w.Write([]byte(`{
			"razao_social": "ACME COMERCIO LTDA",
			"nome_fantasia": "ACME",
			"cnae_fiscal_descricao": "Comércio varejista",
			"descricao_situacao_cadastral": "ATIVA",
			"porte": "MICRO EMPRESA",
			"natureza_juridica": "Sociedade Empresária Limitada",
			"logradouro": "RUA DAS FLORES",
			"numero": 100,
			"complemento": "SALA 2",
			"bairro": "CENTRO",
			"municipio": "SAO PAULO",
			"uf": "SP",
			"cep": 1310100
		}`))
	}))
	defer srv.Close()

	svc := NewRegistryService(lookupConfig(srv.URL), nil)
	got, err := svc.LookupCompany(context.Background(), "11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "ACME COMERCIO LTDA", got.LegalName)
	assert.Equal(t, "ACME", got.TradeName)
	assert.Equal(t, "ATIVA", got.Status)
	assert.Equal(t, "MICRO EMPRESA", got.Size)
	assert.Equal(t, "100", got.Address.Number)
	assert.Equal(t, "SP", got.Address.State)
}

func TestRegistryServiceCachesNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, mr := setupRedis(t)
	svc := NewRegistryService(lookupConfig(srv.URL), NewRedisLookupCache(client))

	for i := 0; i < 2; i++ {
		_, err := svc.LookupCompany(context.Background(), "11222333000181")
		assert.ErrorIs(t, err, wizard.ErrNotFound)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, time.Minute, mr.TTL("lookup:cnpj:11222333000181"))
}

func TestRegistryServiceRejectsInvalidCNPJ(t *testing.T) {
	_, err := NewRegistryService(lookupConfig("http://127.0.0.1:1"), nil).LookupCompany(context.Background(), "11222333000182")
	assert.ErrorIs(t, err, ErrInvalidLookupKey)
}

func TestLookupSurvivesCacheOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"logradouro":"Rua A","bairro":"B","localidade":"C","uf":"MG"}`))
	}))
	defer srv.Close()

	client, mr := setupRedis(t)
	mr.Close()

	got, err := NewAddressService(lookupConfig(srv.URL), NewRedisLookupCache(client)).LookupAddress(context.Background(), "30130000")
	require.NoError(t, err)
	assert.Equal(t, "MG", got.State)
}
