package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sharematch-backend/internal/common/errors"
	"sharematch-backend/internal/features/compliance/models"
	"sharematch-backend/internal/features/compliance/service"
	"sharematch-backend/internal/features/compliance/signature"
)

const (
	testSecret       = "webhook-secret"
	testServiceToken = "service-token"
)

type fakeService struct {
	lastUserID string
	lastEvent  models.ReviewEvent
	status     *models.StatusResponse
	err        error
}

func (s *fakeService) Reconcile(ctx context.Context, userID string, event models.ReviewEvent) (*service.Outcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastUserID = userID
	s.lastEvent = event
	return &service.Outcome{From: models.StatusUnverified, To: models.StatusApproved, Changed: true}, nil
}

func (s *fakeService) GetStatus(ctx context.Context, userID string) (*models.StatusResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastUserID = userID
	return s.status, nil
}

func setupRouter(svc service.ComplianceService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewComplianceHandler(svc, signature.NewVerifier(testSecret))
	handler.RegisterRoutes(router.Group("/api/v1"), testServiceToken, nil)
	return router
}

func signedWebhookRequest(t *testing.T, body []byte) *http.Request {
	t.Helper()
	v := signature.NewVerifier(testSecret)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderPayloadDigest, v.Sign(body, signature.AlgHMACSHA256))
	req.Header.Set(HeaderPayloadDigestAlg, signature.AlgHMACSHA256)
	return req
}

func TestWebhook_ValidEvent(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	body := []byte(`{
		"type": "applicantReviewed",
		"externalUserId": "u1",
		"applicantId": "a1",
		"levelName": "id-and-liveness",
		"reviewStatus": "completed",
		"reviewResult": {"reviewAnswer": "GREEN"}
	}`)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhookRequest(t, body))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.lastUserID)
	assert.Equal(t, "a1", svc.lastEvent.ApplicantID)
	assert.Equal(t, models.AnswerGreen, svc.lastEvent.ReviewAnswer)
	assert.Equal(t, models.ReviewStatusCompleted, svc.lastEvent.ReviewStatus)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
}

func TestWebhook_BadSignatureRejectedBeforeProcessing(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	// Sign the original body, deliver a copy mutated by one byte.
	body := []byte(`{"type":"applicantReviewed","externalUserId":"u1"}`)
	sig := signature.NewVerifier(testSecret).Sign(body, signature.AlgHMACSHA256)
	mutated := bytes.Replace(body, []byte("u1"), []byte("u2"), 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/webhook", bytes.NewReader(mutated))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderPayloadDigest, sig)
	req.Header.Set(HeaderPayloadDigestAlg, signature.AlgHMACSHA256)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.lastUserID, "no state mutation on signature failure")
}

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	router := setupRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/webhook", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_MissingUserID(t *testing.T) {
	router := setupRouter(&fakeService{})

	body := []byte(`{"type":"applicantCreated","applicantId":"a1"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhookRequest(t, body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_StoreFailureSignalsRedelivery(t *testing.T) {
	svc := &fakeService{err: apperrors.New(apperrors.ErrCodeStoreError, "store down")}
	router := setupRouter(svc)

	body := []byte(`{"type":"applicantReviewed","externalUserId":"u1"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, signedWebhookRequest(t, body))

	assert.Equal(t, http.StatusInternalServerError, w.Code, "500 makes the provider redeliver")
}

func TestPushStatus_ServiceTokenRequired(t *testing.T) {
	router := setupRouter(&fakeService{})
	body := []byte(`{"userId":"u1","reviewAnswer":"GREEN"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/status/push", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/kyc/status/push", bytes.NewReader(body))
	req.Header.Set("X-Service-Token", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPushStatus_ReconcilesForUser(t *testing.T) {
	svc := &fakeService{}
	router := setupRouter(svc)

	body := []byte(`{"userId":"u1","reviewAnswer":"RED","reviewRejectType":"FINAL"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/status/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", testServiceToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.lastUserID)
	assert.Equal(t, models.AnswerRed, svc.lastEvent.ReviewAnswer)
	assert.Equal(t, models.RejectTypeFinal, svc.lastEvent.ReviewRejectType)
}

func TestPushStatus_MissingUserID(t *testing.T) {
	router := setupRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/kyc/status/push", bytes.NewReader([]byte(`{"reviewAnswer":"GREEN"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", testServiceToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus_ReturnsFacadeView(t *testing.T) {
	svc := &fakeService{status: &models.StatusResponse{
		KycStatus:    models.StatusApproved,
		OkToTrade:    true,
		HasApplicant: true,
		SumsubLevel:  "id-and-liveness",
	}}
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/kyc/status/u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", svc.lastUserID)

	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusApproved, resp.KycStatus)
	assert.True(t, resp.OkToTrade)
	assert.Equal(t, "id-and-liveness", resp.SumsubLevel)
}
