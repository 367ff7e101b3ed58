package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"bidderpro-backend-go/internal/auth"
	"bidderpro-backend-go/internal/core"
	"bidderpro-backend-go/internal/db"
	"bidderpro-backend-go/internal/models"
	"bidderpro-backend-go/internal/pricing"
	"bidderpro-backend-go/internal/report"
	"bidderpro-backend-go/pkg/messagequeue"
)

const subscribeURL = "https://bidderpro.example.com/subscribe"

type testServer struct {
	router *gin.Engine
	repo   db.UserRepository
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repo := db.NewMemoryUserRepository()
	audit := core.NewAuditService(messagequeue.NewLogPublisher(logger), "bidder.audit")
	gate := core.NewTrialGate(repo, 48*time.Hour, audit, logger)
	estimates, err := core.NewEstimateService(pricing.DefaultPriceTable(), 35, audit, logger)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, logger, tokens, gate, estimates, core.NewBillingService(subscribeURL), pricing.DefaultPriceTable(), 35)
	return &testServer{router: router, repo: repo, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) signIn(t *testing.T, name, email string) SignInResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/session", "", models.SignInRequest{Name: name, Email: email})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
	var resp SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestSignIn_CreatedThenReturning(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/session", "", models.SignInRequest{Name: "Ada", Email: "ada@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	var first SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, core.TrialActive, first.Trial.State)
	assert.Equal(t, 2, first.Trial.DaysLeft)
	assert.Empty(t, first.SubscribeURL)

	w = s.do(t, http.MethodPost, "/api/v1/session", "", models.SignInRequest{Name: "Ada", Email: "ADA@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	var second SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.False(t, second.Created)
	assert.True(t, first.Trial.TrialStart.Equal(second.Trial.TrialStart))
}

func TestSignIn_MissingFields(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/session", "", models.SignInRequest{Name: "Ada"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter both name and email.", decodeError(t, w).Error)
}

func TestCurrentSession(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/session", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	signed := s.signIn(t, "Ada", "ada@example.com")
	w = s.do(t, http.MethodGet, "/api/v1/session", signed.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.True(t, resp.Trial.Active())
}

func TestGenerateEstimate_JSON(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	buffer := 20
	w := s.do(t, http.MethodPost, "/api/v1/estimates", signed.Token, models.EstimateRequest{
		ProjectName:   "Smith Garage",
		ZipCode:       "30301",
		ProjectType:   models.ProjectGarageBuild,
		SquareFootage: 1000,
		BufferPercent: &buffer,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view models.EstimateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "$58,520.00", view.Formatted.Total)
	assert.Len(t, view.Result.LineItems, 11)
	assert.Contains(t, view.Explanation, "ZIP code 30301.")
}

func TestGenerateEstimate_InvalidInputNamesField(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/estimates", signed.Token, models.EstimateRequest{SquareFootage: 99})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "squareFootage", decodeError(t, w).Field)
}

func TestGenerateEstimate_TrialExpired(t *testing.T) {
	s := newTestServer(t)

	user := &models.UserRecord{Email: "late@example.com", Name: "Late", TrialStart: time.Now().Add(-72 * time.Hour)}
	_, _, err := s.repo.InsertIfAbsent(context.Background(), user)
	require.NoError(t, err)
	token, _, err := s.tokens.Issue(user)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/v1/estimates", token, models.EstimateRequest{SquareFootage: 1000})
	require.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "trial_expired", resp.Error)
	assert.Equal(t, subscribeURL+"?email=late%40example.com", resp.SubscribeURL)

	w = s.do(t, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, core.TrialExpired, session.Trial.State)
	assert.NotEmpty(t, session.SubscribeURL)
}

func multipartEstimate(t *testing.T, fileName, laborRate string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("projectName", "Roof Job"))
	require.NoError(t, mw.WriteField("zipCode", "10001"))
	require.NoError(t, mw.WriteField("projectType", models.ProjectRoofReplacement))
	require.NoError(t, mw.WriteField("squareFootage", "500"))
	require.NoError(t, mw.WriteField("bufferPercent", "10"))
	require.NoError(t, mw.WriteField("includeLabor", "true"))
	require.NoError(t, mw.WriteField("laborRate", laborRate))
	if fileName != "" {
		part, err := mw.CreateFormFile(PlansField, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestGenerateEstimate_MultipartWithPlans(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	body, contentType := multipartEstimate(t, "plans.PDF", "40")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+signed.Token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view models.EstimateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "plans.PDF", view.Project.AttachmentName)
	assert.Equal(t, 10, view.BufferPercent)
	assert.Equal(t, 40.0, view.LaborRate)
	assert.InDelta(t, 20000.0, view.Result.LaborCost, 1e-6)
}

func TestGenerateEstimate_RejectsPlanType(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	body, contentType := multipartEstimate(t, "plans.exe", "40")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimates", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+signed.Token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, PlansField, decodeError(t, w).Field)
}

func TestGenerateEstimate_NonFiniteLaborRate(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	for _, rate := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(rate, func(t *testing.T) {
			body, contentType := multipartEstimate(t, "", rate)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/estimates", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("Authorization", "Bearer "+signed.Token)
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "laborRate", decodeError(t, w).Field)
		})
	}
}

func TestExportEstimate(t *testing.T) {
	s := newTestServer(t)
	signed := s.signIn(t, "Ada", "ada@example.com")

	w := s.do(t, http.MethodPost, "/api/v1/estimates/export", signed.Token, models.EstimateRequest{
		ProjectName:   "Smith Garage",
		SquareFootage: 1000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Smith-Garage-estimate.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{report.SheetName}, f.GetSheetList())
}

func TestReferenceData(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/pricing/default", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var table PriceTableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	assert.Len(t, table.Materials, 11)
	assert.InDelta(t, 19.6, table.UnitPriceSum, 1e-9)
	assert.Equal(t, 20, table.DefaultBuffer)

	w = s.do(t, http.MethodGet, "/api/v1/project-types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var types ProjectTypesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &types))
	assert.Equal(t, models.ProjectTypes, types.ProjectTypes)

	w = s.do(t, http.MethodGet, "/api/v1/billing/subscribe?email=a@b.co", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), subscribeURL+"?email=a%40b.co")
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "estimate.xlsx", exportFileName("  "))
	assert.Equal(t, "Smith-Garage-estimate.xlsx", exportFileName("Smith Garage"))
	assert.Equal(t, "Roof-Deck-estimate.xlsx", exportFileName("Roof & Deck"))
}
