package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tutela/internal/consent/models"
	"tutela/internal/sentinel"
)

// MemoryStore is the volatile fallback repository. It never fails to
// construct and its operations never fail; everything it holds is lost when
// the process exits.
type MemoryStore struct {
	mu         sync.RWMutex
	consents   map[string]map[string]*models.ConsentRecord // user_id -> consent_type
	audit      []models.AuditEvent
	auditSeq   int64
	activities []models.ProcessingActivity
}

// NewMemory constructs an empty in-process repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		consents: make(map[string]map[string]*models.ConsentRecord),
	}
}

func (s *MemoryStore) SaveConsent(_ context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error) {
	if record == nil {
		return nil, sentinel.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.consents[record.UserID]
	if !ok {
		byType = make(map[string]*models.ConsentRecord)
		s.consents[record.UserID] = byType
	}

	stored := record.Clone()
	if existing, ok := byType[record.ConsentType]; ok {
		stored.ID = existing.ID // the pair keeps its identity across re-grants
	}
	stored.WithdrawnAt = nil
	byType[record.ConsentType] = stored
	return stored.Clone(), nil
}

func (s *MemoryStore) GetConsent(_ context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.consents[userID][consentType]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryStore) WithdrawConsent(_ context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.consents[userID][consentType]
	if !ok || record.WithdrawnAt != nil {
		return nil, sentinel.ErrNotFound
	}
	withdrawnAt := at
	record.WithdrawnAt = &withdrawnAt
	return record.Clone(), nil
}

func (s *MemoryStore) ListConsents(_ context.Context, userID string) ([]*models.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listConsentsLocked(userID), nil
}

func (s *MemoryStore) listConsentsLocked(userID string) []*models.ConsentRecord {
	byType, ok := s.consents[userID]
	if !ok {
		return nil
	}
	records := make([]*models.ConsentRecord, 0, len(byType))
	for _, record := range byType {
		records = append(records, record.Clone())
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ConsentType < records[j].ConsentType })
	return records
}

func (s *MemoryStore) LogAuditEvent(_ context.Context, event models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditSeq++
	stored := event.Clone()
	stored.ID = s.auditSeq
	s.audit = append(s.audit, stored)
	return nil
}

func (s *MemoryStore) ListAuditEvents(_ context.Context, userID string) ([]models.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listAuditEventsLocked(userID), nil
}

func (s *MemoryStore) listAuditEventsLocked(userID string) []models.AuditEvent {
	events := make([]models.AuditEvent, 0, len(s.audit))
	for _, event := range s.audit {
		if userID != "" && event.UserID != userID {
			continue
		}
		events = append(events, event.Clone())
	}
	return events
}

func (s *MemoryStore) ListProcessingActivities(_ context.Context) ([]models.ProcessingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listActivitiesLocked(), nil
}

func (s *MemoryStore) listActivitiesLocked() []models.ProcessingActivity {
	activities := make([]models.ProcessingActivity, 0, len(s.activities))
	for _, activity := range s.activities {
		activities = append(activities, activity.Clone())
	}
	return activities
}

func (s *MemoryStore) ReplaceProcessingActivities(_ context.Context, activities []models.ProcessingActivity) error {
	replacement := make([]models.ProcessingActivity, 0, len(activities))
	for _, activity := range activities {
		replacement = append(replacement, activity.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = replacement
	return nil
}

func (s *MemoryStore) ExportUserData(_ context.Context, userID string) (*models.UserDataExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &models.UserDataExport{
		UserID:               userID,
		Consents:             s.listConsentsLocked(userID),
		AuditTrail:           s.listAuditEventsLocked(userID),
		ProcessingActivities: s.listActivitiesLocked(),
	}, nil
}

func (s *MemoryStore) EraseUserData(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.consents[userID])
	delete(s.consents, userID)
	return removed, nil
}

func (s *MemoryStore) Backend() Backend { return BackendFallback }

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
