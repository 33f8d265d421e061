package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tutorhub/tutorhub-api/config"
	"github.com/tutorhub/tutorhub-api/internal/models"
	"github.com/tutorhub/tutorhub-api/internal/services"
	"github.com/tutorhub/tutorhub-api/pkg/httpclient"
	"github.com/tutorhub/tutorhub-api/pkg/jwt"
)

func newDecisionRouter(trainerRepo *mockTrainerStore, auditRepo *mockAuditStore, tm *jwt.TokenManager) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "https://tutorhub.test"},
		Verification: config.VerificationConfig{
			CooldownDays:        30,
			DecisionLinkTTLDays: 7,
			DecisionLinkBaseURL: "https://tutorhub.test",
		},
	}
	verification := services.NewVerificationService(
		trainerRepo, auditRepo, tm, noopInvalidator{}, cfg, httpclient.NewStandardClient())
	handler := NewAuthHandler(nil, verification, "", false, 24)

	router := gin.New()
	router.GET("/api/auth/verify-trainer/:token", handler.VerifyTrainer)
	return router
}

func TestVerifyTrainer_ApprovalRendersConfirmationPage(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "tutorhub-test", 24)
	trainerRepo := new(mockTrainerStore)
	auditRepo := new(mockAuditStore)
	router := newDecisionRouter(trainerRepo, auditRepo, tm)

	token, err := tm.GenerateActionToken("2", models.DecisionApprove, 7*24*time.Hour)
	assert.NoError(t, err)

	trainerRepo.On("GetByID", mock.Anything, int64(2)).Return(&models.TrainerProfile{
		ID: 2, Name: "Sam Trainer", VerificationStatus: models.VerificationPending,
	}, nil)
	trainerRepo.On("UpdateStatusIfCurrent", mock.Anything, int64(2),
		models.VerificationPending, models.VerificationVerified, (*time.Time)(nil)).Return(true, nil)
	auditRepo.On("Record", mock.Anything, int64(2), "approve", mock.Anything, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/auth/verify-trainer/"+token, http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Application approved")
	assert.Contains(t, w.Body.String(), "Sam Trainer")
	trainerRepo.AssertExpectations(t)
}

func TestVerifyTrainer_SecondOpenShowsAlreadyProcessed(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "tutorhub-test", 24)
	trainerRepo := new(mockTrainerStore)
	auditRepo := new(mockAuditStore)
	router := newDecisionRouter(trainerRepo, auditRepo, tm)

	token, err := tm.GenerateActionToken("2", models.DecisionReject, 7*24*time.Hour)
	assert.NoError(t, err)

	// The application was settled by an earlier open of the approve link
	trainerRepo.On("GetByID", mock.Anything, int64(2)).Return(&models.TrainerProfile{
		ID: 2, Name: "Sam Trainer", VerificationStatus: models.VerificationVerified,
	}, nil)
	trainerRepo.On("UpdateStatusIfCurrent", mock.Anything, int64(2),
		models.VerificationPending, models.VerificationRejected, mock.Anything).Return(false, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/auth/verify-trainer/"+token, http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Already processed")
	auditRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyTrainer_GarbageTokenRendersInvalidPage(t *testing.T) {
	tm := jwt.NewTokenManager("test-secret", "tutorhub-test", 24)
	router := newDecisionRouter(new(mockTrainerStore), new(mockAuditStore), tm)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/auth/verify-trainer/not-a-token", http.NoBody)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid")
}
