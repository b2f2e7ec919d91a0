package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"sharematch-backend/internal/common/errors"
	"sharematch-backend/internal/common/logger"
	"sharematch-backend/internal/common/middleware"
	"sharematch-backend/internal/features/compliance/models"
	"sharematch-backend/internal/features/compliance/service"
	"sharematch-backend/internal/features/compliance/signature"
)

// Webhook signature headers sent by the provider.
const (
	HeaderPayloadDigest    = "X-Payload-Digest"
	HeaderPayloadDigestAlg = "X-Payload-Digest-Alg"
)

type ComplianceHandler struct {
	service  service.ComplianceService
	verifier *signature.Verifier
}

func NewComplianceHandler(service service.ComplianceService, verifier *signature.Verifier) *ComplianceHandler {
	return &ComplianceHandler{
		service:  service,
		verifier: verifier,
	}
}

// RegisterRoutes wires the three entry points. The webhook
// authenticates itself through its signature; the push endpoint is for
// internal tooling; the status endpoint is user-facing.
func (h *ComplianceHandler) RegisterRoutes(router *gin.RouterGroup, serviceToken string, userAuth gin.HandlerFunc) {
	kyc := router.Group("/kyc")
	{
		kyc.POST("/webhook", h.Webhook)

		internal := kyc.Group("")
		internal.Use(middleware.ServiceAuth(serviceToken))
		{
			internal.POST("/status/push", h.PushStatus)
		}

		status := kyc.Group("")
		if userAuth != nil {
			status.Use(userAuth)
		}
		{
			status.GET("/status/:userId", h.GetStatus)
		}
	}
}

// @Summary Provider webhook intake
// @Description Receives signed applicantReviewed/applicantCreated events from the verification provider and reconciles them into the user's compliance record. A non-2xx response makes the provider redeliver.
// @Tags kyc
// @Accept json
// @Produce json
// @Param X-Payload-Digest header string true "Hex HMAC signature of the raw body"
// @Param X-Payload-Digest-Alg header string false "Signature algorithm token"
// @Success 200 {object} map[string]interface{} "ok"
// @Failure 400 {object} middleware.ErrorResponse "Missing externalUserId"
// @Failure 401 {object} middleware.ErrorResponse "Signature verification failed"
// @Failure 500 {object} middleware.ErrorResponse "Store failure, provider should redeliver"
// @Router /kyc/webhook [post]
func (h *ComplianceHandler) Webhook(c *gin.Context) {
	// The signature covers the raw bytes; read them before any parsing.
	rawBody, err := c.GetRawData()
	if err != nil {
		middleware.SendError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Failed to read request body"))
		return
	}

	sig := c.GetHeader(HeaderPayloadDigest)
	alg := c.GetHeader(HeaderPayloadDigestAlg)
	if !h.verifier.Verify(rawBody, sig, alg) {
		logger.Warn().
			Str("client_ip", c.ClientIP()).
			Str("algorithm", alg).
			Msg("Webhook signature verification failed")
		middleware.SendError(c, errors.New(errors.ErrCodeInvalidSignature, "Invalid webhook signature"))
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		middleware.SendError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Malformed webhook payload"))
		return
	}
	if payload.ExternalUserID == "" {
		middleware.SendError(c, errors.New(errors.ErrCodeMissingUserID, "Webhook payload has no externalUserId"))
		return
	}

	outcome, err := h.service.Reconcile(c.Request.Context(), payload.ExternalUserID, payload.Event())
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			middleware.SendError(c, appErr)
		} else {
			middleware.SendError(c, errors.Wrap(err, errors.ErrCodeInternal, "Reconciliation failed"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": outcome.To})
}

// @Summary Manual status push
// @Description Forces a reconciliation pass for a user with the supplied review fields. Internal tooling only.
// @Tags kyc
// @Accept json
// @Produce json
// @Security ServiceToken
// @Param request body models.StatusPushRequest true "Review fields"
// @Success 200 {object} map[string]interface{} "Reconciliation outcome"
// @Failure 400 {object} middleware.ErrorResponse "Missing userId"
// @Failure 401 {object} middleware.ErrorResponse "Missing service token"
// @Failure 403 {object} middleware.ErrorResponse "Invalid service token"
// @Router /kyc/status/push [post]
func (h *ComplianceHandler) PushStatus(c *gin.Context) {
	var req models.StatusPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, errors.Wrap(err, errors.ErrCodeValidation, "Invalid status push request"))
		return
	}

	outcome, err := h.service.Reconcile(c.Request.Context(), req.UserID, req.Event())
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			middleware.SendError(c, appErr)
		} else {
			middleware.SendError(c, errors.Wrap(err, errors.ErrCodeInternal, "Reconciliation failed"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "from": outcome.From, "to": outcome.To, "changed": outcome.Changed})
}

// @Summary Verification status
// @Description Returns the user's verification state plus derived trading eligibility. Rejection detail is enriched live from the provider when available.
// @Tags kyc
// @Produce json
// @Security BearerToken
// @Param userId path string true "Platform user id"
// @Success 200 {object} models.StatusResponse "Status"
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} middleware.ErrorResponse "Token subject does not match userId"
// @Router /kyc/status/{userId} [get]
func (h *ComplianceHandler) GetStatus(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		middleware.SendError(c, errors.New(errors.ErrCodeMissingUserID, "Missing userId"))
		return
	}

	// Users read their own record; the admin role may read any.
	if subject, exists := c.Get("user_id"); exists {
		if sub, ok := subject.(string); ok && sub != userID && !middleware.HasRole(c, middleware.ComplianceAdminRole) {
			middleware.SendError(c, errors.New(errors.ErrCodeForbidden, "Not allowed to read this user's status"))
			return
		}
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			middleware.SendError(c, appErr)
		} else {
			middleware.SendError(c, errors.Wrap(err, errors.ErrCodeInternal, "Status lookup failed"))
		}
		return
	}

	c.JSON(http.StatusOK, status)
}
