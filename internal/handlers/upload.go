// internal/handlers/upload.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/models"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
)

// multipartOverhead is allowed on top of the file limit for form boundaries and headers.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	storageService *services.StorageService
	wizardService  *services.WizardService
}

func NewUploadHandler(storageService *services.StorageService, wizardService *services.WizardService) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		wizardService:  wizardService,
	}
}

// POST /applications/:id/files/:category
func (h *UploadHandler) Upload(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	category := models.FileCategory(c.Param("category"))
	options, err := h.storageService.UploadOptionsFor(category)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadUnknownCategory), nil)
		return
	}

	// A frozen or completed session would reject the attachment after the upload
	session, err := h.wizardService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if session.Completed {
		utils.ErrorResponse(c, http.StatusConflict, "SESSION_COMPLETED", i18n.T(lang, i18n.KeySessionDone), nil)
		return
	}
	if session.Frozen {
		utils.ErrorResponse(c, http.StatusConflict, "SESSION_FROZEN", i18n.T(lang, i18n.KeySessionFrozen), nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, options.MaxSize+multipartOverhead)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.PayloadTooLargeResponse(c, i18n.T(lang, i18n.KeyUploadTooLarge, options.MaxSize>>20))
			return
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadMissingFile), nil)
		return
	}
	defer file.Close()

	result, err := h.storageService.UploadFile(c.Request.Context(), id, category, file, header)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFileTooLarge):
			utils.PayloadTooLargeResponse(c, i18n.T(lang, i18n.KeyUploadTooLarge, options.MaxSize>>20))
		case errors.Is(err, services.ErrFileTypeNotAllowed):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadTypeNotAllowed), options.AllowedTypes)
		case errors.Is(err, services.ErrEmptyFile):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadMissingFile), nil)
		default:
			logrus.WithError(err).WithField("category", category).Error("upload failed")
			utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyUploadFailed))
		}
		return
	}

	view, err := h.wizardService.AttachFile(c.Request.Context(), id, category, result.URL)
	if err != nil {
		// the record no longer accepts this document; drop the orphan
		if delErr := h.storageService.DeleteFile(c.Request.Context(), result.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", result.Key).Warn("failed to remove orphaned upload")
		}
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"file":    result,
		"session": view,
	})
}
