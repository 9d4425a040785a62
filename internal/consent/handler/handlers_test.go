package handler

// Handler tests verify the HTTP surface in isolation:
// - status code mapping from domain errors (validation -> 400, not found -> 404,
//   persistence failures -> 503)
// - request decoding, sanitization, and wire-level validation
// - response envelope shapes
//
// Full stack behavior over a live store is covered by
// internal/consent/integration_test.go.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tutela/internal/consent/handler/dto"
	"tutela/internal/consent/handler/mocks"
	"tutela/internal/consent/models"
	"tutela/internal/consent/service"
	dErrors "tutela/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/consent-mocks.go -package=mocks Service

type ConsentHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ConsentHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestConsentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsentHandlerSuite))
}

// =============================================================================
// Save Consent
// =============================================================================

func (s *ConsentHandlerSuite) TestHandleSaveConsent() {
	s.Run("200 - records decision and renders the stored record", func() {
		handler, mockService := newTestHandler(s.T())
		stored := &models.ConsentRecord{
			ID:          "consent_01J8ZQW9GVXT5E0R2M3N4P5Q6R",
			UserID:      "user-1",
			ConsentType: "marketing",
			Granted:     true,
			Purpose:     "newsletter",
			Timestamp:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		mockService.EXPECT().Save(gomock.Any(), service.SaveRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
			Granted:     true,
			Purpose:     "newsletter",
		}).Return(stored, nil)

		w := s.do(handler.HandleSaveConsent, http.MethodPost, "/consent", dto.SaveConsentRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
			Granted:     true,
			Purpose:     "newsletter",
		})

		s.Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("consent_01J8ZQW9GVXT5E0R2M3N4P5Q6R", resp["consent_id"])
		s.Equal("user-1", resp["user_id"])
		s.Equal(true, resp["granted"])
		s.Contains(w.Body.String(), `"withdrawn_at":null`)
	})

	s.Run("200 - whitespace in fields is trimmed before the service sees them", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Save(gomock.Any(), service.SaveRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
			Granted:     false,
			Purpose:     "newsletter",
		}).Return(&models.ConsentRecord{ID: "consent_x", UserID: "user-1"}, nil)

		w := s.do(handler.HandleSaveConsent, http.MethodPost, "/consent", dto.SaveConsentRequest{
			UserID:      "  user-1  ",
			ConsentType: " marketing ",
			Granted:     false,
			Purpose:     " newsletter ",
		})

		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("400 - missing user_id", func() {
		handler, _ := newTestHandler(s.T())

		w := s.do(handler.HandleSaveConsent, http.MethodPost, "/consent", dto.SaveConsentRequest{
			ConsentType: "marketing",
			Purpose:     "newsletter",
		})

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Contains(w.Body.String(), "user_id is required")
	})

	s.Run("400 - missing purpose", func() {
		handler, _ := newTestHandler(s.T())

		w := s.do(handler.HandleSaveConsent, http.MethodPost, "/consent", dto.SaveConsentRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
		})

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Contains(w.Body.String(), "purpose is required")
	})

	s.Run("400 - malformed JSON body", func() {
		handler, _ := newTestHandler(s.T())
		req := httptest.NewRequest(http.MethodPost, "/consent", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()

		handler.HandleSaveConsent(w, req)

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("503 - backend failure surfaces as persistence error, never backend identity", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Save(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "saving consent"))

		w := s.do(handler.HandleSaveConsent, http.MethodPost, "/consent", dto.SaveConsentRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
			Purpose:     "newsletter",
		})

		s.assertStatusAndError(w, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
		s.NotContains(w.Body.String(), "postgres")
		s.NotContains(w.Body.String(), "badger")
	})
}

// =============================================================================
// Get / Check
// =============================================================================

func (s *ConsentHandlerSuite) TestHandleGetConsent() {
	s.Run("200 - returns the stored record", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Get(gomock.Any(), "user-1", "marketing").
			Return(&models.ConsentRecord{ID: "consent_x", UserID: "user-1", ConsentType: "marketing"}, nil)

		w := s.get(handler.HandleGetConsent, "/consent?user_id=user-1&type=marketing")

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"consent_id":"consent_x"`)
	})

	s.Run("404 - absent pair", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Get(gomock.Any(), "ghost", "marketing").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "consent record not found"))

		w := s.get(handler.HandleGetConsent, "/consent?user_id=ghost&type=marketing")

		s.assertStatusAndError(w, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("400 - missing user_id rejected by the service", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Get(gomock.Any(), "", "marketing").
			Return(nil, dErrors.New(dErrors.CodeValidation, "user_id is required"))

		w := s.get(handler.HandleGetConsent, "/consent?type=marketing")

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ConsentHandlerSuite) TestHandleCheckConsent() {
	s.Run("200 - absent consent answers granted=false", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Check(gomock.Any(), "user-1", "analytics").
			Return(&service.Decision{UserID: "user-1", ConsentType: "analytics", Granted: false}, nil)

		w := s.get(handler.HandleCheckConsent, "/consent/check?user_id=user-1&type=analytics")

		s.Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(false, resp["granted"])
	})

	s.Run("503 - backend failure during check", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Check(gomock.Any(), "user-1", "analytics").
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "reading consent"))

		w := s.get(handler.HandleCheckConsent, "/consent/check?user_id=user-1&type=analytics")

		s.assertStatusAndError(w, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
	})
}

// =============================================================================
// Withdraw / List
// =============================================================================

func (s *ConsentHandlerSuite) TestHandleWithdrawConsent() {
	s.Run("200 - withdrawal renders the stamped record", func() {
		handler, mockService := newTestHandler(s.T())
		at := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
		mockService.EXPECT().Withdraw(gomock.Any(), "user-1", "marketing").
			Return(&models.ConsentRecord{
				ID: "consent_x", UserID: "user-1", ConsentType: "marketing",
				Granted: true, WithdrawnAt: &at,
			}, nil)

		w := s.do(handler.HandleWithdrawConsent, http.MethodPost, "/consent/withdraw",
			dto.WithdrawConsentRequest{UserID: "user-1", ConsentType: "marketing"})

		s.Equal(http.StatusOK, w.Code)
		var resp dto.WithdrawResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Withdrawn)
		s.Require().NotNil(resp.Record)
		s.NotNil(resp.Record.WithdrawnAt)
		s.True(resp.Record.Granted, "granted stays historically accurate")
	})

	s.Run("200 - withdrawing an absent consent is a no-op", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Withdraw(gomock.Any(), "ghost", "marketing").Return(nil, nil)

		w := s.do(handler.HandleWithdrawConsent, http.MethodPost, "/consent/withdraw",
			dto.WithdrawConsentRequest{UserID: "ghost", ConsentType: "marketing"})

		s.Equal(http.StatusOK, w.Code)
		var resp dto.WithdrawResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.False(resp.Withdrawn)
		s.Nil(resp.Record)
		s.Contains(resp.Message, "no consent on file")
	})

	s.Run("400 - missing consent_type", func() {
		handler, _ := newTestHandler(s.T())

		w := s.do(handler.HandleWithdrawConsent, http.MethodPost, "/consent/withdraw",
			dto.WithdrawConsentRequest{UserID: "user-1"})

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
		s.Contains(w.Body.String(), "consent_type is required")
	})
}

func (s *ConsentHandlerSuite) TestHandleListConsents() {
	s.Run("200 - wraps records under consents", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().List(gomock.Any(), "user-1").
			Return([]*models.ConsentRecord{
				{ID: "consent_a", UserID: "user-1", ConsentType: "marketing"},
				{ID: "consent_b", UserID: "user-1", ConsentType: "analytics"},
			}, nil)

		w := s.get(handler.HandleListConsents, "/consents?user_id=user-1")

		s.Equal(http.StatusOK, w.Code)
		var resp dto.ConsentsResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Consents, 2)
	})
}

// =============================================================================
// Data Subject Rights
// =============================================================================

func (s *ConsentHandlerSuite) TestHandleAccessRequest() {
	s.Run("200 - renders the full export", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Access(gomock.Any(), "user-1").
			Return(&models.UserDataExport{
				RequestRef:  "dsr_01J8ZQWA",
				UserID:      "user-1",
				GeneratedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
				Consents:    []*models.ConsentRecord{{ID: "consent_a", UserID: "user-1"}},
				AuditTrail:  []models.AuditEvent{{ID: 1, Action: models.AuditActionConsentGranted, UserID: "user-1"}},
			}, nil)

		w := s.get(handler.HandleAccessRequest, "/rights/access?user_id=user-1")

		s.Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("dsr_01J8ZQWA", resp["request_ref"])
		s.Contains(resp, "consents")
		s.Contains(resp, "audit_trail")
		s.Contains(resp, "processing_activities")
	})
}

func (s *ConsentHandlerSuite) TestHandleErasureRequest() {
	s.Run("200 - renders the erasure receipt", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Erase(gomock.Any(), "user-1").
			Return(&service.ErasureReceipt{
				RequestRef:     "dsr_01J8ZQWB",
				UserID:         "user-1",
				RecordsRemoved: 3,
				ErasedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			}, nil)

		w := s.do(handler.HandleErasureRequest, http.MethodPost, "/rights/erasure",
			dto.ErasureRequest{UserID: "user-1"})

		s.Equal(http.StatusOK, w.Code)
		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("dsr_01J8ZQWB", resp["request_ref"])
		s.Equal(float64(3), resp["records_removed"])
	})

	s.Run("400 - missing user_id", func() {
		handler, _ := newTestHandler(s.T())

		w := s.do(handler.HandleErasureRequest, http.MethodPost, "/rights/erasure", dto.ErasureRequest{})

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *ConsentHandlerSuite) TestHandleRectificationRequest() {
	s.Run("200 - renders the corrected record", func() {
		handler, mockService := newTestHandler(s.T())
		corrected := "newsletter"
		mockService.EXPECT().Rectify(gomock.Any(), "user-1", "marketing",
			models.Rectification{Purpose: &corrected}).
			Return(&models.ConsentRecord{
				ID: "consent_x", UserID: "user-1", ConsentType: "marketing", Purpose: "newsletter",
			}, nil)

		w := s.do(handler.HandleRectificationRequest, http.MethodPost, "/rights/rectification",
			dto.RectificationRequest{UserID: "user-1", ConsentType: "marketing", Purpose: &corrected})

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"purpose":"newsletter"`)
	})

	s.Run("400 - service rejects an empty patch", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Rectify(gomock.Any(), "user-1", "marketing", models.Rectification{}).
			Return(nil, dErrors.New(dErrors.CodeValidation, "rectification patch is empty"))

		w := s.do(handler.HandleRectificationRequest, http.MethodPost, "/rights/rectification",
			dto.RectificationRequest{UserID: "user-1", ConsentType: "marketing"})

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("404 - nothing on file to rectify", func() {
		handler, mockService := newTestHandler(s.T())
		corrected := "newsletter"
		mockService.EXPECT().Rectify(gomock.Any(), "ghost", "marketing", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "no consent record to rectify"))

		w := s.do(handler.HandleRectificationRequest, http.MethodPost, "/rights/rectification",
			dto.RectificationRequest{UserID: "ghost", ConsentType: "marketing", Purpose: &corrected})

		s.assertStatusAndError(w, http.StatusNotFound, string(dErrors.CodeNotFound))
	})
}

func (s *ConsentHandlerSuite) TestHandlePortabilityRequest() {
	s.Run("200 - json format served", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Portability(gomock.Any(), "user-1", "json").
			Return(&models.UserDataExport{RequestRef: "dsr_01J8ZQWC", UserID: "user-1"}, nil)

		w := s.get(handler.HandlePortabilityRequest, "/rights/portability?user_id=user-1&format=json")

		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"request_ref":"dsr_01J8ZQWC"`)
	})

	s.Run("400 - unsupported format", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().Portability(gomock.Any(), "user-1", "csv").
			Return(nil, dErrors.New(dErrors.CodeValidation, `unsupported export format "csv", supported formats: json`))

		w := s.get(handler.HandlePortabilityRequest, "/rights/portability?user_id=user-1&format=csv")

		s.assertStatusAndError(w, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

// =============================================================================
// Activities / Audit Trail
// =============================================================================

func (s *ConsentHandlerSuite) TestHandleListActivities() {
	s.Run("200 - wraps the register under activities", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().ProcessingActivities(gomock.Any()).
			Return([]models.ProcessingActivity{{ID: "pa_marketing", Name: "Marketing communications"}}, nil)

		w := s.get(handler.HandleListActivities, "/activities")

		s.Equal(http.StatusOK, w.Code)
		var resp dto.ActivitiesResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Activities, 1)
		s.Equal("pa_marketing", resp.Activities[0].ID)
	})
}

func (s *ConsentHandlerSuite) TestHandleAuditTrail() {
	s.Run("200 - subject scoped trail", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().AuditTrail(gomock.Any(), "user-1").
			Return([]models.AuditEvent{
				{ID: 1, Action: models.AuditActionConsentGranted, UserID: "user-1"},
				{ID: 2, Action: models.AuditActionConsentWithdrawn, UserID: "user-1"},
			}, nil)

		w := s.get(handler.HandleAuditTrail, "/audit?user_id=user-1")

		s.Equal(http.StatusOK, w.Code)
		var resp dto.AuditTrailResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Events, 2)
	})

	s.Run("200 - whole trail when user_id is absent", func() {
		handler, mockService := newTestHandler(s.T())
		mockService.EXPECT().AuditTrail(gomock.Any(), "").
			Return([]models.AuditEvent{{ID: 1, Action: models.AuditActionRepositoryFallback}}, nil)

		w := s.get(handler.HandleAuditTrail, "/audit")

		s.Equal(http.StatusOK, w.Code)
		var resp dto.AuditTrailResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Events, 1)
	})
}

// =============================================================================
// Test Helpers
// =============================================================================

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(mockService, logger), mockService
}

// do invokes an HTTP handler with a JSON body and returns the recorder.
func (s *ConsentHandlerSuite) do(h http.HandlerFunc, method, endpoint string, body any) *httptest.ResponseRecorder {
	bodyBytes, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(method, endpoint, bytes.NewReader(bodyBytes))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// get invokes an HTTP handler with a body-less GET and returns the recorder.
func (s *ConsentHandlerSuite) get(h http.HandlerFunc, endpoint string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, endpoint, nil)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// assertErrorResponse unmarshals the response body and asserts the error code.
func (s *ConsentHandlerSuite) assertErrorResponse(w *httptest.ResponseRecorder, expectedCode string) {
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Assert().Equal(expectedCode, resp["error"])
}

// assertStatusAndError asserts both status code and error response in one call.
func (s *ConsentHandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	s.Assert().Equal(expectedStatus, w.Code)
	s.assertErrorResponse(w, expectedCode)
}
