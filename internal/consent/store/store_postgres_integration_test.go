//go:build integration

// Exercises the Postgres repository against a real database: the sqlmock
// tests pin the SQL text, these pin the semantics the schema has to deliver
// (conflict arm, withdrawal guard, trail survival under erasure).
package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tutela/internal/consent/models"
	"tutela/internal/consent/store"
	"tutela/internal/sentinel"
	"tutela/pkg/testutil/containers"
)

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	ctx context.Context
	pg  *containers.PostgresContainer
	// repo shares the container's pool; the suite never closes it.
	repo *store.PostgresStore
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.SharedPostgres(s.T())
	s.repo = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))
}

func (s *PostgresStoreIntegrationSuite) saveConsent(id, userID, consentType string, granted bool, at time.Time) *models.ConsentRecord {
	stored, err := s.repo.SaveConsent(s.ctx, &models.ConsentRecord{
		ID:          id,
		UserID:      userID,
		ConsentType: consentType,
		Granted:     granted,
		Purpose:     "newsletter delivery",
		Timestamp:   at,
	})
	s.Require().NoError(err)
	return stored
}

// =====================
// Consent lifecycle
// =====================

func (s *PostgresStoreIntegrationSuite) TestConsentUpsertKeepsIdentity() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first := s.saveConsent("consent_a", "user-1", "marketing", true, now)
	s.Equal("consent_a", first.ID)
	s.Nil(first.WithdrawnAt)

	// The new decision lands under the stored id, not the caller's.
	second := s.saveConsent("consent_b", "user-1", "marketing", false, now.Add(time.Hour))
	s.Equal("consent_a", second.ID)
	s.False(second.Granted)

	list, err := s.repo.ListConsents(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.WithinDuration(now.Add(time.Hour), list[0].Timestamp, time.Second)
}

func (s *PostgresStoreIntegrationSuite) TestWithdrawLifecycle() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.saveConsent("consent_a", "user-1", "marketing", true, now)

	withdrawn, err := s.repo.WithdrawConsent(s.ctx, "user-1", "marketing", now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NotNil(withdrawn.WithdrawnAt)
	s.True(withdrawn.Granted, "granted stays historically accurate")

	s.Run("second withdrawal finds nothing active", func() {
		_, err := s.repo.WithdrawConsent(s.ctx, "user-1", "marketing", now.Add(2*time.Hour))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown pair", func() {
		_, err := s.repo.WithdrawConsent(s.ctx, "user-9", "marketing", now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("re-grant clears the withdrawal", func() {
		regranted := s.saveConsent("consent_z", "user-1", "marketing", true, now.Add(3*time.Hour))
		s.Equal("consent_a", regranted.ID)
		s.Nil(regranted.WithdrawnAt)
	})
}

func (s *PostgresStoreIntegrationSuite) TestMetadataAndOriginRoundTrip() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	stored, err := s.repo.SaveConsent(s.ctx, &models.ConsentRecord{
		ID:          "consent_a",
		UserID:      "user-1",
		ConsentType: "analytics",
		Granted:     true,
		Purpose:     "usage statistics",
		OriginIP:    "203.0.113.7",
		Metadata:    map[string]string{"campaign": "spring", "locale": "de"},
		Timestamp:   now,
	})
	s.Require().NoError(err)
	s.Equal("203.0.113.7", stored.OriginIP)
	s.Equal(map[string]string{"campaign": "spring", "locale": "de"}, stored.Metadata)

	fetched, err := s.repo.GetConsent(s.ctx, "user-1", "analytics")
	s.Require().NoError(err)
	s.Equal(stored.Metadata, fetched.Metadata)

	_, err = s.repo.GetConsent(s.ctx, "user-1", "marketing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// =====================
// Audit trail
// =====================

func (s *PostgresStoreIntegrationSuite) TestAuditTrailScopeAndOrder() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i, event := range []models.AuditEvent{
		models.NewAuditEvent(models.AuditActionConsentGranted, "user-1", map[string]string{models.DetailConsentType: "marketing"}),
		models.NewAuditEvent(models.AuditActionRepositoryFallback, "", map[string]string{models.DetailFrom: "primary", models.DetailTo: "secondary"}),
		models.NewAuditEvent(models.AuditActionConsentWithdrawn, "user-1", nil),
		models.NewAuditEvent(models.AuditActionConsentGranted, "user-2", nil),
	} {
		event.Timestamp = now.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.repo.LogAuditEvent(s.ctx, event))
	}

	whole, err := s.repo.ListAuditEvents(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(whole, 4)
	for i := 1; i < len(whole); i++ {
		s.Greater(whole[i].ID, whole[i-1].ID, "append order is id order")
	}
	s.Empty(whole[1].UserID, "system events carry no subject")

	scoped, err := s.repo.ListAuditEvents(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(scoped, 2)
	s.Equal(models.AuditActionConsentGranted, scoped[0].Action)
	s.Equal(models.AuditActionConsentWithdrawn, scoped[1].Action)
	s.Equal(map[string]string{models.DetailConsentType: "marketing"}, scoped[0].Details)
}

// =====================
// Activities, export, erasure
// =====================

func (s *PostgresStoreIntegrationSuite) TestProcessingActivitiesRoundTrip() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	activities := []models.ProcessingActivity{
		{
			ID:               "act-1",
			Name:             "Newsletter",
			Purpose:          "marketing",
			LegalBasis:       "consent",
			DataCategories:   []string{"email", "name"},
			Recipients:       []string{"mail-provider"},
			RetentionPeriod:  "24 months",
			SecurityMeasures: []string{"encryption at rest"},
			CreatedAt:        now,
		},
		{ID: "act-2", Name: "Support", Purpose: "customer support", LegalBasis: "contract", RetentionPeriod: "36 months", CreatedAt: now},
	}
	s.Require().NoError(s.repo.ReplaceProcessingActivities(s.ctx, activities))

	stored, err := s.repo.ListProcessingActivities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal([]string{"email", "name"}, stored[0].DataCategories)
	s.Equal([]string{"mail-provider"}, stored[0].Recipients)

	// Replacement is wholesale.
	s.Require().NoError(s.repo.ReplaceProcessingActivities(s.ctx, activities[1:]))
	stored, err = s.repo.ListProcessingActivities(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("act-2", stored[0].ID)
}

func (s *PostgresStoreIntegrationSuite) TestExportAggregates() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.saveConsent("consent_a", "user-1", "marketing", true, now)
	s.saveConsent("consent_b", "user-1", "analytics", false, now)
	s.saveConsent("consent_c", "user-2", "marketing", true, now)

	event := models.NewAuditEvent(models.AuditActionConsentGranted, "user-1", nil)
	event.Timestamp = now
	s.Require().NoError(s.repo.LogAuditEvent(s.ctx, event))
	s.Require().NoError(s.repo.ReplaceProcessingActivities(s.ctx, []models.ProcessingActivity{
		{ID: "act-1", Name: "Newsletter", Purpose: "marketing", LegalBasis: "consent", RetentionPeriod: "24 months", CreatedAt: now},
	}))

	export, err := s.repo.ExportUserData(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("user-1", export.UserID)
	s.Len(export.Consents, 2)
	s.Len(export.AuditTrail, 1)
	s.Len(export.ProcessingActivities, 1, "the register describes processing, not one subject")
}

func (s *PostgresStoreIntegrationSuite) TestEraseRemovesConsentsKeepsAudit() {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.saveConsent("consent_a", "user-1", "marketing", true, now)
	s.saveConsent("consent_b", "user-1", "analytics", true, now)
	s.saveConsent("consent_c", "user-2", "marketing", true, now)

	event := models.NewAuditEvent(models.AuditActionConsentGranted, "user-1", nil)
	event.Timestamp = now
	s.Require().NoError(s.repo.LogAuditEvent(s.ctx, event))

	removed, err := s.repo.EraseUserData(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(2, removed)

	_, err = s.repo.GetConsent(s.ctx, "user-1", "marketing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	survivor, err := s.repo.GetConsent(s.ctx, "user-2", "marketing")
	s.Require().NoError(err)
	s.Equal("consent_c", survivor.ID)

	var auditRows int
	s.Require().NoError(s.pg.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM audit_events WHERE user_id = $1`, "user-1").Scan(&auditRows))
	s.Equal(1, auditRows, "erasure never touches the trail")

	s.Run("erasing an unknown user removes nothing", func() {
		removed, err := s.repo.EraseUserData(s.ctx, "user-9")
		s.Require().NoError(err)
		s.Zero(removed)
	})
}

func (s *PostgresStoreIntegrationSuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
	s.Equal(store.BackendPrimary, s.repo.Backend())
}
