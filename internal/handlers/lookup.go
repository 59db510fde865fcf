// internal/handlers/lookup.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

// LookupHandler exposes the address and registry lookups to clients that
// pre-fill outside the wizard session.
type LookupHandler struct {
	addresses wizard.AddressLookup
	registry  wizard.RegistryLookup
}

func NewLookupHandler(addresses wizard.AddressLookup, registry wizard.RegistryLookup) *LookupHandler {
	return &LookupHandler{addresses: addresses, registry: registry}
}

// GET /lookups/postal-codes/:code
func (h *LookupHandler) PostalCode(c *gin.Context) {
	result, err := h.addresses.LookupAddress(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondLookupError(c, err, i18n.KeyLookupInvalidPostal)
		return
	}
	utils.SuccessResponse(c, result)
}

// GET /lookups/companies/:cnpj
func (h *LookupHandler) Company(c *gin.Context) {
	result, err := h.registry.LookupCompany(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		respondLookupError(c, err, i18n.KeyLookupInvalidCompany)
		return
	}
	utils.SuccessResponse(c, result)
}

func respondLookupError(c *gin.Context, err error, invalidKey string) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrInvalidLookupKey):
		utils.BadRequestResponse(c, i18n.T(lang, invalidKey), nil)
	case errors.Is(err, wizard.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "LOOKUP_NOT_FOUND", i18n.T(lang, i18n.KeyLookupNotFound), nil)
	default:
		utils.BadGatewayResponse(c, "LOOKUP_FAILED", i18n.T(lang, i18n.KeyLookupFailed))
	}
}
