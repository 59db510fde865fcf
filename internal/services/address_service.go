// internal/services/address_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/config"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/metrics"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

var ErrInvalidLookupKey = errors.New("invalid lookup key")

// AddressService resolves postal codes through ViaCEP.
type AddressService struct {
	client  *http.Client
	baseURL string
	cache   LookupCache
	hitTTL  time.Duration
	missTTL time.Duration
}

func NewAddressService(cfg config.LookupConfig, cache LookupCache) *AddressService {
	return &AddressService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.ViaCEPURL, "/"),
		cache:   cache,
		hitTTL:  cfg.HitTTL,
		missTTL: cfg.MissTTL,
	}
}

type viaCEPResponse struct {
	Logradouro string          `json:"logradouro"`
	Bairro     string          `json:"bairro"`
	Localidade string          `json:"localidade"`
	UF         string          `json:"uf"`
	Erro       json.RawMessage `json:"erro"`
}

// notFound covers both {"erro": true} and the newer {"erro": "true"}.
func (r viaCEPResponse) notFound() bool {
	v := strings.Trim(string(r.Erro), `"`)
	return v == "true"
}

func (s *AddressService) LookupAddress(ctx context.Context, postalCode string) (*wizard.AddressResult, error) {
	cep := utils.OnlyDigits(postalCode)
	if len(cep) != 8 {
		return nil, fmt.Errorf("%w: postal code %q", ErrInvalidLookupKey, postalCode)
	}
	return cachedLookup(ctx, s.cache, "address", "cep:"+cep, s.hitTTL, s.missTTL, func(ctx context.Context) (*wizard.AddressResult, error) {
		return s.fetch(ctx, cep)
	})
}

func (s *AddressService) fetch(ctx context.Context, cep string) (*wizard.AddressResult, error) {
	url := fmt.Sprintf("%s/ws/%s/json/", s.baseURL, cep)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("viacep request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		return nil, wizard.ErrNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("viacep returned status %d", resp.StatusCode)
	}

	var body viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("viacep decode: %w", err)
	}
	if body.notFound() {
		return nil, wizard.ErrNotFound
	}

	return &wizard.AddressResult{
		Street:       body.Logradouro,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		State:        body.UF,
	}, nil
}

// cachedLookup serves key from cache when present and otherwise calls load,
// caching hits for hitTTL and not-found answers for missTTL. Cache failures
// are logged and never fail the lookup.
func cachedLookup[T any](ctx context.Context, cache LookupCache, kind, key string, hitTTL, missTTL time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	log := logrus.WithFields(logrus.Fields{"kind": kind, "key": key})

	if cache != nil {
		entry, err := cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("lookup cache unavailable")
		}
		if entry != nil {
			if !entry.Found {
				metrics.LookupCache.WithLabelValues(kind, "negative_hit").Inc()
				return nil, wizard.ErrNotFound
			}
			var out T
			if err := json.Unmarshal(entry.Data, &out); err == nil {
				metrics.LookupCache.WithLabelValues(kind, "hit").Inc()
				return &out, nil
			}
			log.Warn("discarding undecodable cache entry")
		}
		metrics.LookupCache.WithLabelValues(kind, "miss").Inc()
	}

	start := time.Now()
	out, err := load(ctx)
	metrics.LookupDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, wizard.ErrNotFound):
		metrics.Lookups.WithLabelValues(kind, "not_found").Inc()
		storeEntry(ctx, cache, log, key, CacheEntry{Found: false}, missTTL)
		return nil, err
	case err != nil:
		metrics.Lookups.WithLabelValues(kind, "failed").Inc()
		log.WithError(err).Warn("lookup failed")
		return nil, err
	}

	metrics.Lookups.WithLabelValues(kind, "found").Inc()
	if data, err := json.Marshal(out); err == nil {
		storeEntry(ctx, cache, log, key, CacheEntry{Found: true, Data: data}, hitTTL)
	}
	return out, nil
}

func storeEntry(ctx context.Context, cache LookupCache, log *logrus.Entry, key string, entry CacheEntry, ttl time.Duration) {
	if cache == nil || ttl <= 0 {
		return
	}
	if err := cache.Set(ctx, key, entry, ttl); err != nil {
		log.WithError(err).Warn("lookup cache write failed")
	}
}
