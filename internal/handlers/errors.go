// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

// ViolationDetail is a violation with its localized message.
type ViolationDetail struct {
	Field   string        `json:"field"`
	Reason  wizard.Reason `json:"reason"`
	Message string        `json:"message"`
}

func localizeViolations(lang string, violations []wizard.Violation) []ViolationDetail {
	out := make([]ViolationDetail, 0, len(violations))
	for _, v := range violations {
		out = append(out, ViolationDetail{
			Field:   v.Field,
			Reason:  v.Reason,
			Message: i18n.T(lang, i18n.KeyViolationPrefix+string(v.Reason)),
		})
	}
	return out
}

// respondError maps service and engine errors onto the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		utils.NotFoundResponse(c, "application")
	case errors.Is(err, wizard.ErrFrozen):
		utils.ErrorResponse(c, http.StatusConflict, "SESSION_FROZEN", i18n.T(lang, i18n.KeySessionFrozen), nil)
	case errors.Is(err, wizard.ErrCompleted):
		utils.ErrorResponse(c, http.StatusConflict, "SESSION_COMPLETED", i18n.T(lang, i18n.KeySessionDone), nil)
	case errors.Is(err, wizard.ErrNotAtConfirmation):
		utils.ErrorResponse(c, http.StatusConflict, "NOT_AT_CONFIRMATION", i18n.T(lang, i18n.KeyNotAtConfirmation), nil)
	case errors.Is(err, wizard.ErrRegistryNotLoaded):
		utils.ErrorResponse(c, http.StatusConflict, "REGISTRY_NOT_LOADED", i18n.T(lang, i18n.KeyRegistryNotLoaded), nil)
	case errors.Is(err, wizard.ErrInactiveVariant):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyInactiveVariant), nil)
	case errors.Is(err, wizard.ErrUnknownKind):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUnknownKind), nil)
	case errors.Is(err, wizard.ErrNilPatch):
		utils.BadRequestResponse(c, "", nil)
	case errors.Is(err, services.ErrUnknownCategory):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadUnknownCategory), nil)
	case errors.Is(err, services.ErrNotificationFailed):
		utils.BadGatewayResponse(c, "NOTIFICATION_FAILED", i18n.T(lang, i18n.KeyNotificationFailed))
	case errors.Is(err, services.ErrSubmissionFailed):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SUBMISSION_FAILED", i18n.T(lang, i18n.KeySubmissionFailed), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
	}
}
