package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tutela/internal/consent/models"
	"tutela/internal/consent/service/mocks"
	"tutela/internal/platform/metrics"
	"tutela/internal/sentinel"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/requestcontext"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.service = New(
		s.mockStore,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics.NewWith(prometheus.NewRegistry()),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// echoSave wires SaveConsent to return its input, like the real stores do
// for a fresh pair.
func (s *ServiceSuite) echoSave() *gomock.Call {
	return s.mockStore.EXPECT().
		SaveConsent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error) {
			return record, nil
		})
}

// captureAudit expects one audit append and stores the event for assertions.
func (s *ServiceSuite) captureAudit(into *models.AuditEvent) *gomock.Call {
	return s.mockStore.EXPECT().
		LogAuditEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.AuditEvent) error {
			*into = event
			return nil
		})
}

func (s *ServiceSuite) TestSave_ValidationErrors() {
	s.T().Run("missing user_id", func(t *testing.T) {
		_, err := s.service.Save(context.Background(), SaveRequest{ConsentType: "marketing", Purpose: "campaigns"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.T().Run("missing consent_type", func(t *testing.T) {
		_, err := s.service.Save(context.Background(), SaveRequest{UserID: "user-1", Purpose: "campaigns"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.T().Run("missing purpose", func(t *testing.T) {
		_, err := s.service.Save(context.Background(), SaveRequest{UserID: "user-1", ConsentType: "marketing"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSave_PersistsDecisionAndAudits() {
	s.T().Run("grant is normalized, stamped, and audited", func(t *testing.T) {
		var event models.AuditEvent
		s.echoSave()
		s.captureAudit(&event)

		ctx := requestcontext.WithClientMetadata(context.Background(), "203.0.113.7",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		saved, err := s.service.Save(ctx, SaveRequest{
			UserID:      "  user-1  ",
			ConsentType: "Marketing",
			Granted:     true,
			Purpose:     "email campaigns",
		})
		require.NoError(t, err)

		assert.Equal(t, "user-1", saved.UserID)
		assert.Equal(t, "marketing", saved.ConsentType)
		assert.Equal(t, fixedNow, saved.Timestamp)
		assert.Equal(t, "203.0.113.7", saved.OriginIP)
		assert.True(t, strings.HasPrefix(saved.ID, "consent_"))

		assert.Equal(t, models.AuditActionConsentGranted, event.Action)
		assert.Equal(t, "user-1", event.UserID)
		assert.Equal(t, fixedNow, event.Timestamp)
		assert.Equal(t, saved.ID, event.Details[models.DetailConsentID])
		assert.Equal(t, "marketing", event.Details[models.DetailConsentType])
		assert.Equal(t, "true", event.Details[models.DetailGranted])
		assert.Equal(t, "203.0.113.7", event.Details[models.DetailOrigin])
		assert.Contains(t, event.Details[models.DetailClient], "Chrome")
	})

	s.T().Run("denial is stored and audited like a grant", func(t *testing.T) {
		var event models.AuditEvent
		s.echoSave()
		s.captureAudit(&event)

		saved, err := s.service.Save(context.Background(), SaveRequest{
			UserID:      "user-2",
			ConsentType: "analytics",
			Granted:     false,
			Purpose:     "usage statistics",
		})
		require.NoError(t, err)

		assert.False(t, saved.Granted)
		assert.Equal(t, models.AuditActionConsentGranted, event.Action)
		assert.Equal(t, "false", event.Details[models.DetailGranted])
	})
}

func (s *ServiceSuite) TestSave_BackendFailure() {
	s.mockStore.EXPECT().
		SaveConsent(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	_, err := s.service.Save(context.Background(), SaveRequest{
		UserID:      "user-1",
		ConsentType: "marketing",
		Granted:     true,
		Purpose:     "email campaigns",
	})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestSave_BackendErrorClassification() {
	save := func() error {
		_, err := s.service.Save(context.Background(), SaveRequest{
			UserID:      "user-1",
			ConsentType: "marketing",
			Granted:     true,
			Purpose:     "email campaigns",
		})
		return err
	}

	s.T().Run("commit conflict maps to CodeConflict", func(t *testing.T) {
		s.mockStore.EXPECT().
			SaveConsent(gomock.Any(), gomock.Any()).
			Return(nil, sentinel.ErrConflict)

		err := save()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.T().Run("expired deadline maps to CodeTimeout", func(t *testing.T) {
		s.mockStore.EXPECT().
			SaveConsent(gomock.Any(), gomock.Any()).
			Return(nil, context.DeadlineExceeded)

		err := save()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func (s *ServiceSuite) TestGet() {
	s.T().Run("absent pair maps to CodeNotFound", func(t *testing.T) {
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Get(context.Background(), "user-1", "marketing")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.T().Run("backend failure maps to CodeUnavailable", func(t *testing.T) {
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(nil, assert.AnError)

		_, err := s.service.Get(context.Background(), "user-1", "marketing")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.T().Run("consent type is normalized before lookup", func(t *testing.T) {
		record := &models.ConsentRecord{ID: "consent_1", UserID: "user-1", ConsentType: "marketing", Granted: true, Purpose: "email"}
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(record, nil)

		got, err := s.service.Get(context.Background(), "user-1", " Marketing ")
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})
}

func (s *ServiceSuite) TestCheck_DecisionStates() {
	withdrawnAt := fixedNow.Add(-time.Hour)

	cases := []struct {
		name    string
		record  *models.ConsentRecord
		absent  bool
		granted bool
	}{
		{
			name:    "granted and not withdrawn permits processing",
			record:  &models.ConsentRecord{UserID: "user-1", ConsentType: "marketing", Granted: true},
			granted: true,
		},
		{
			name:   "withdrawn grant denies processing",
			record: &models.ConsentRecord{UserID: "user-1", ConsentType: "marketing", Granted: true, WithdrawnAt: &withdrawnAt},
		},
		{
			name:   "recorded denial denies processing",
			record: &models.ConsentRecord{UserID: "user-1", ConsentType: "marketing", Granted: false},
		},
		{
			name:   "absent record denies processing without error",
			absent: true,
		},
	}

	for _, tc := range cases {
		s.T().Run(tc.name, func(t *testing.T) {
			if tc.absent {
				s.mockStore.EXPECT().
					GetConsent(gomock.Any(), "user-1", "marketing").
					Return(nil, sentinel.ErrNotFound)
			} else {
				s.mockStore.EXPECT().
					GetConsent(gomock.Any(), "user-1", "marketing").
					Return(tc.record, nil)
			}

			decision, err := s.service.Check(context.Background(), "user-1", "marketing")
			require.NoError(t, err)
			assert.Equal(t, tc.granted, decision.Granted)
			assert.Equal(t, "user-1", decision.UserID)
			assert.Equal(t, "marketing", decision.ConsentType)
		})
	}
}

func (s *ServiceSuite) TestWithdraw() {
	s.T().Run("transition is returned and audited", func(t *testing.T) {
		withdrawn := &models.ConsentRecord{
			ID: "consent_1", UserID: "user-1", ConsentType: "marketing",
			Granted: true, Purpose: "email", WithdrawnAt: &fixedNow,
		}
		var event models.AuditEvent
		s.mockStore.EXPECT().
			WithdrawConsent(gomock.Any(), "user-1", "marketing", fixedNow).
			Return(withdrawn, nil)
		s.captureAudit(&event)

		got, err := s.service.Withdraw(context.Background(), "user-1", "marketing")
		require.NoError(t, err)
		require.NotNil(t, got.WithdrawnAt)

		assert.Equal(t, models.AuditActionConsentWithdrawn, event.Action)
		assert.Equal(t, "consent_1", event.Details[models.DetailConsentID])
		assert.Equal(t, "marketing", event.Details[models.DetailConsentType])
	})

	s.T().Run("absent pair is a silent no-op", func(t *testing.T) {
		s.mockStore.EXPECT().
			WithdrawConsent(gomock.Any(), "user-1", "marketing", gomock.Any()).
			Return(nil, sentinel.ErrNotFound)

		got, err := s.service.Withdraw(context.Background(), "user-1", "marketing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	s.T().Run("backend failure maps to CodeUnavailable", func(t *testing.T) {
		s.mockStore.EXPECT().
			WithdrawConsent(gomock.Any(), "user-1", "marketing", gomock.Any()).
			Return(nil, assert.AnError)

		_, err := s.service.Withdraw(context.Background(), "user-1", "marketing")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestAccess_StampsExportAndAudits() {
	export := &models.UserDataExport{
		UserID:   "user-1",
		Consents: []*models.ConsentRecord{{ID: "consent_1", UserID: "user-1", ConsentType: "marketing"}},
	}
	var event models.AuditEvent
	gomock.InOrder(
		s.mockStore.EXPECT().
			ExportUserData(gomock.Any(), "user-1").
			Return(export, nil),
		s.captureAudit(&event),
	)

	got, err := s.service.Access(context.Background(), "user-1")
	require.NoError(s.T(), err)

	assert.True(s.T(), strings.HasPrefix(got.RequestRef, "dsr_"))
	assert.Equal(s.T(), fixedNow, got.GeneratedAt)
	assert.Equal(s.T(), models.AuditActionAccessRequested, event.Action)
	assert.Equal(s.T(), got.RequestRef, event.Details[models.DetailRequestRef])
}

func (s *ServiceSuite) TestErase_AuditsAfterDeletion() {
	s.T().Run("receipt and trailing audit event", func(t *testing.T) {
		var event models.AuditEvent
		gomock.InOrder(
			s.mockStore.EXPECT().
				EraseUserData(gomock.Any(), "user-1").
				Return(3, nil),
			s.captureAudit(&event),
		)

		receipt, err := s.service.Erase(context.Background(), "user-1")
		require.NoError(t, err)

		assert.Equal(t, 3, receipt.RecordsRemoved)
		assert.Equal(t, fixedNow, receipt.ErasedAt)
		assert.True(t, strings.HasPrefix(receipt.RequestRef, "dsr_"))

		assert.Equal(t, models.AuditActionErasureRequested, event.Action)
		assert.Equal(t, "3", event.Details[models.DetailRecordsRemoved])
		assert.Equal(t, receipt.RequestRef, event.Details[models.DetailRequestRef])
	})

	s.T().Run("unknown subject still audits the request", func(t *testing.T) {
		var event models.AuditEvent
		s.mockStore.EXPECT().
			EraseUserData(gomock.Any(), "ghost").
			Return(0, nil)
		s.captureAudit(&event)

		receipt, err := s.service.Erase(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Equal(t, 0, receipt.RecordsRemoved)
		assert.Equal(t, "0", event.Details[models.DetailRecordsRemoved])
	})
}

func (s *ServiceSuite) TestRectify() {
	s.T().Run("empty patch is rejected before any lookup", func(t *testing.T) {
		_, err := s.service.Rectify(context.Background(), "user-1", "marketing", models.Rectification{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.T().Run("absent record maps to CodeNotFound", func(t *testing.T) {
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(nil, sentinel.ErrNotFound)

		purpose := "corrected"
		_, err := s.service.Rectify(context.Background(), "user-1", "marketing", models.Rectification{Purpose: &purpose})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.T().Run("purpose correction audits the diff", func(t *testing.T) {
		existing := &models.ConsentRecord{
			ID: "consent_1", UserID: "user-1", ConsentType: "marketing",
			Granted: true, Purpose: "old purpose",
		}
		var event models.AuditEvent
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(existing, nil)
		s.echoSave()
		s.captureAudit(&event)

		purpose := "new purpose"
		got, err := s.service.Rectify(context.Background(), "user-1", "marketing", models.Rectification{Purpose: &purpose})
		require.NoError(t, err)

		assert.Equal(t, "new purpose", got.Purpose)
		assert.Equal(t, models.AuditActionRectificationRequested, event.Action)
		assert.Equal(t, "old purpose", event.Details["purpose_previous"])
		assert.Equal(t, "new purpose", event.Details["purpose"])
	})

	s.T().Run("withdrawn record keeps its withdrawal mark", func(t *testing.T) {
		withdrawnAt := fixedNow.Add(-24 * time.Hour)
		existing := &models.ConsentRecord{
			ID: "consent_1", UserID: "user-1", ConsentType: "marketing",
			Granted: true, Purpose: "old purpose", WithdrawnAt: &withdrawnAt,
		}
		restored := existing.Clone()
		restored.Purpose = "new purpose"

		var event models.AuditEvent
		gomock.InOrder(
			s.mockStore.EXPECT().
				GetConsent(gomock.Any(), "user-1", "marketing").
				Return(existing, nil),
			s.echoSave(),
			s.mockStore.EXPECT().
				WithdrawConsent(gomock.Any(), "user-1", "marketing", withdrawnAt).
				Return(restored, nil),
			s.captureAudit(&event),
		)

		purpose := "new purpose"
		got, err := s.service.Rectify(context.Background(), "user-1", "marketing", models.Rectification{Purpose: &purpose})
		require.NoError(t, err)

		require.NotNil(t, got.WithdrawnAt)
		assert.Equal(t, withdrawnAt, *got.WithdrawnAt)
		assert.Equal(t, models.AuditActionRectificationRequested, event.Action)
	})

	s.T().Run("patch matching stored state changes nothing", func(t *testing.T) {
		existing := &models.ConsentRecord{
			ID: "consent_1", UserID: "user-1", ConsentType: "marketing",
			Granted: true, Purpose: "same purpose",
		}
		s.mockStore.EXPECT().
			GetConsent(gomock.Any(), "user-1", "marketing").
			Return(existing, nil)

		purpose := "same purpose"
		got, err := s.service.Rectify(context.Background(), "user-1", "marketing", models.Rectification{Purpose: &purpose})
		require.NoError(t, err)
		assert.Equal(t, existing, got)
	})
}

func (s *ServiceSuite) TestPortability_FormatGate() {
	s.T().Run("unsupported format is rejected with the supported list", func(t *testing.T) {
		_, err := s.service.Portability(context.Background(), "user-1", "csv")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "json")
	})

	s.T().Run("empty format defaults to json", func(t *testing.T) {
		var event models.AuditEvent
		s.mockStore.EXPECT().
			ExportUserData(gomock.Any(), "user-1").
			Return(&models.UserDataExport{UserID: "user-1"}, nil)
		s.captureAudit(&event)

		got, err := s.service.Portability(context.Background(), "user-1", "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(got.RequestRef, "dsr_"))
		assert.Equal(t, models.AuditActionPortabilityRequested, event.Action)
		assert.Equal(t, "json", event.Details[models.DetailFormat])
	})

	s.T().Run("format comparison is case-insensitive", func(t *testing.T) {
		var event models.AuditEvent
		s.mockStore.EXPECT().
			ExportUserData(gomock.Any(), "user-1").
			Return(&models.UserDataExport{UserID: "user-1"}, nil)
		s.captureAudit(&event)

		_, err := s.service.Portability(context.Background(), "user-1", " JSON ")
		require.NoError(t, err)
		assert.Equal(t, "json", event.Details[models.DetailFormat])
	})
}

func (s *ServiceSuite) TestAuditFailuresAreNonFatal() {
	s.T().Run("failed trail append does not fail the save", func(t *testing.T) {
		s.echoSave()
		s.mockStore.EXPECT().
			LogAuditEvent(gomock.Any(), gomock.Any()).
			Return(assert.AnError)

		_, err := s.service.Save(context.Background(), SaveRequest{
			UserID: "user-1", ConsentType: "marketing", Granted: true, Purpose: "email",
		})
		assert.NoError(t, err)
	})

	s.T().Run("failed mirror publish does not fail the save", func(t *testing.T) {
		mirror := mocks.NewMockMirror(s.ctrl)
		svc := New(
			s.mockStore,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			metrics.NewWith(prometheus.NewRegistry()),
			WithClock(func() time.Time { return fixedNow }),
			WithAuditMirror(mirror),
		)

		s.echoSave()
		s.mockStore.EXPECT().
			LogAuditEvent(gomock.Any(), gomock.Any()).
			Return(nil)
		mirror.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			Return(assert.AnError)

		_, err := svc.Save(context.Background(), SaveRequest{
			UserID: "user-1", ConsentType: "marketing", Granted: true, Purpose: "email",
		})
		assert.NoError(t, err)
	})

	s.T().Run("mirror receives the same event as the trail", func(t *testing.T) {
		mirror := mocks.NewMockMirror(s.ctrl)
		svc := New(
			s.mockStore,
			slog.New(slog.NewTextHandler(io.Discard, nil)),
			metrics.NewWith(prometheus.NewRegistry()),
			WithClock(func() time.Time { return fixedNow }),
			WithAuditMirror(mirror),
		)

		var logged, mirrored models.AuditEvent
		s.echoSave()
		s.captureAudit(&logged)
		mirror.EXPECT().
			Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, event models.AuditEvent) error {
				mirrored = event
				return nil
			})

		_, err := svc.Save(context.Background(), SaveRequest{
			UserID: "user-1", ConsentType: "marketing", Granted: true, Purpose: "email",
		})
		require.NoError(t, err)
		assert.Equal(t, logged.Action, mirrored.Action)
		assert.Equal(t, logged.Details, mirrored.Details)
	})
}

func (s *ServiceSuite) TestListings() {
	s.T().Run("audit trail passes an empty subject through for the full trail", func(t *testing.T) {
		events := []models.AuditEvent{{ID: 1, Action: models.AuditActionConsentGranted}}
		s.mockStore.EXPECT().
			ListAuditEvents(gomock.Any(), "").
			Return(events, nil)

		got, err := s.service.AuditTrail(context.Background(), "  ")
		require.NoError(t, err)
		assert.Equal(t, events, got)
	})

	s.T().Run("backend failures map to CodeUnavailable", func(t *testing.T) {
		s.mockStore.EXPECT().ListConsents(gomock.Any(), "user-1").Return(nil, assert.AnError)
		_, err := s.service.List(context.Background(), "user-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		s.mockStore.EXPECT().ListProcessingActivities(gomock.Any()).Return(nil, assert.AnError)
		_, err = s.service.ProcessingActivities(context.Background())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		s.mockStore.EXPECT().ListAuditEvents(gomock.Any(), "user-1").Return(nil, assert.AnError)
		_, err = s.service.AuditTrail(context.Background(), "user-1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
