// internal/handlers/wizard.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/services"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

type WizardHandler struct {
	wizardService      *services.WizardService
	applicationService *services.ApplicationService
}

func NewWizardHandler(wizardService *services.WizardService, applicationService *services.ApplicationService) *WizardHandler {
	return &WizardHandler{
		wizardService:      wizardService,
		applicationService: applicationService,
	}
}

// sessionID reads the id SessionRequired put in the context.
func sessionID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := utils.GetSessionIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return id, true
}

// POST /applications
func (h *WizardHandler) Start(c *gin.Context) {
	result, err := h.wizardService.Start(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}

// GET /applications/:id
func (h *WizardHandler) Get(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	session, err := h.wizardService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponseWithMeta(c, session, gin.H{
		"violations": localizeViolations(utils.GetLangFromContext(c), session.Violations),
	})
}

// PATCH /applications/:id/sections/:section?trigger=change|blur
func (h *WizardHandler) UpdateSection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	section, err := wizard.ParseSection(c.Param("section"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUnknownSection, c.Param("section")), nil)
		return
	}

	patch, err := bindPatch(c, section)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyRequestInvalid), err.Error())
		return
	}

	result, err := h.wizardService.UpdateSection(c.Request.Context(), id, patch, wizard.ParseTrigger(c.Query("trigger")))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, result, gin.H{
		"notices": localizeNotices(lang, result.Notices),
		"lookups": localizeLookups(lang, result.Lookups),
	})
}

func bindPatch(c *gin.Context, section wizard.Section) (wizard.SectionPatch, error) {
	switch section {
	case wizard.SectionApplicant:
		var p wizard.ApplicantPatch
		err := c.ShouldBindJSON(&p)
		return p, err
	case wizard.SectionHolder:
		var p wizard.HolderPatch
		err := c.ShouldBindJSON(&p)
		return p, err
	case wizard.SectionTrademark:
		var p wizard.TrademarkPatch
		err := c.ShouldBindJSON(&p)
		return p, err
	default:
		var p wizard.TermsPatch
		err := c.ShouldBindJSON(&p)
		return p, err
	}
}

type localizedMessage struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func localizeNotices(lang string, notices []wizard.Notice) []localizedMessage {
	out := make([]localizedMessage, 0, len(notices))
	for _, n := range notices {
		key := i18n.KeyLookupInvalidPostal
		if n.Code == wizard.NoticeInvalidCompanyID {
			key = i18n.KeyLookupInvalidCompany
		}
		out = append(out, localizedMessage{Field: n.Field, Code: n.Code, Message: i18n.T(lang, key)})
	}
	return out
}

// localizeLookups explains lookups the applicant has to work around; applied
// and stale ones need no message.
func localizeLookups(lang string, lookups []wizard.LookupOutcome) []localizedMessage {
	out := make([]localizedMessage, 0)
	for _, l := range lookups {
		switch l.Status {
		case wizard.LookupNotFound:
			out = append(out, localizedMessage{Field: string(l.Slot), Code: string(l.Status), Message: i18n.T(lang, i18n.KeyLookupNotFound)})
		case wizard.LookupFailed:
			out = append(out, localizedMessage{Field: string(l.Slot), Code: string(l.Status), Message: i18n.T(lang, i18n.KeyLookupFailed)})
		}
	}
	return out
}

// GET /applications/:id/steps/:step/violations
func (h *WizardHandler) StepViolations(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	n, err := strconv.Atoi(c.Param("step"))
	step := wizard.Step(n)
	if err != nil || !step.Valid() {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUnknownStep, c.Param("step")), nil)
		return
	}

	violations, err := h.wizardService.Validate(c.Request.Context(), id, step)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"step":       step,
		"violations": localizeViolations(lang, violations),
	})
}

// POST /applications/:id/next
func (h *WizardHandler) Next(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.wizardService.Next(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(result.Violations) > 0 {
		utils.UnprocessableResponse(c, localizeViolations(utils.GetLangFromContext(c), result.Violations))
		return
	}
	utils.SuccessResponse(c, result.Session)
}

// POST /applications/:id/previous
func (h *WizardHandler) Previous(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.wizardService.Previous(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result.Session)
}

// POST /applications/:id/submit
func (h *WizardHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := sessionID(c)
	if !ok {
		return
	}

	result, err := h.applicationService.Submit(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(result.Violations) > 0 {
		utils.UnprocessableResponse(c, localizeViolations(lang, result.Violations))
		return
	}
	utils.SuccessResponseWithMeta(c, result, gin.H{
		"message": i18n.T(lang, i18n.KeySubmissionReceived),
	})
}
