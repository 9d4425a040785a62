package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"tutela/internal/consent/models"
	"tutela/internal/platform/docstore"
	"tutela/internal/sentinel"
)

// Key layout. Segments are path-escaped so identifiers cannot break the
// scheme or leak into a neighbouring prefix.
//
//	consent/<user>/<type>  one JSON document per logical consent
//	audit/<id, 20 digits>  append-only JSON entries; key order is append order
//	activity/<id>          one JSON document per register entry
//	seq/audit              badger sequence backing audit IDs
const (
	consentKeyPrefix  = "consent/"
	auditKeyPrefix    = "audit/"
	activityKeyPrefix = "activity/"
	auditSeqKey       = "seq/audit"

	auditSeqBandwidth = 64
)

func consentKey(userID, consentType string) []byte {
	return []byte(consentKeyPrefix + url.PathEscape(userID) + "/" + url.PathEscape(consentType))
}

func consentUserPrefix(userID string) []byte {
	return []byte(consentKeyPrefix + url.PathEscape(userID) + "/")
}

func auditKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", auditKeyPrefix, id))
}

func activityKey(id string) []byte {
	return []byte(activityKeyPrefix + url.PathEscape(id))
}

// DocumentStore is the secondary repository: a durable embedded Badger store
// holding each entity as a JSON document.
type DocumentStore struct {
	db       *docstore.DB
	auditSeq *badger.Sequence
}

// NewDocument wraps an open Badger database. The store takes ownership of
// the database; Close releases it.
func NewDocument(db *docstore.DB) (*DocumentStore, error) {
	seq, err := db.GetSequence([]byte(auditSeqKey), auditSeqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("acquire audit sequence: %w", err)
	}
	return &DocumentStore{db: db, auditSeq: seq}, nil
}

func (s *DocumentStore) SaveConsent(ctx context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error) {
	if record == nil {
		return nil, sentinel.ErrInvalidInput
	}

	stored := record.Clone()
	stored.WithdrawnAt = nil
	key := consentKey(record.UserID, record.ConsentType)

	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		existing, err := getConsentTxn(txn, key)
		switch {
		case err == nil:
			stored.ID = existing.ID // the pair keeps its identity across re-grants
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		doc, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("encode consent document: %w", err)
		}
		return txn.Set(key, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("save consent: %w", err)
	}
	return stored, nil
}

func (s *DocumentStore) GetConsent(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	var record *models.ConsentRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		record, err = getConsentTxn(txn, consentKey(userID, consentType))
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get consent: %w", err)
	}
	return record, nil
}

func (s *DocumentStore) WithdrawConsent(ctx context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error) {
	var record *models.ConsentRecord
	key := consentKey(userID, consentType)

	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		existing, err := getConsentTxn(txn, key)
		if err != nil {
			return err
		}
		if existing.WithdrawnAt != nil {
			return sentinel.ErrNotFound
		}

		withdrawnAt := at
		existing.WithdrawnAt = &withdrawnAt
		doc, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("encode consent document: %w", err)
		}
		if err := txn.Set(key, doc); err != nil {
			return err
		}
		record = existing
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("withdraw consent: %w", err)
	}
	return record, nil
}

func (s *DocumentStore) ListConsents(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	var records []*models.ConsentRecord
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		records, err = listConsentsTxn(txn, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return records, nil
}

func (s *DocumentStore) LogAuditEvent(ctx context.Context, event models.AuditEvent) error {
	next, err := s.auditSeq.Next()
	if err != nil {
		return fmt.Errorf("next audit id: %w", err)
	}

	stored := event.Clone()
	stored.ID = int64(next) + 1 // sequence starts at zero, audit IDs at one
	doc, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode audit document: %w", err)
	}

	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set(auditKey(stored.ID), doc)
	})
	if err != nil {
		return fmt.Errorf("log audit event: %w", err)
	}
	return nil
}

func (s *DocumentStore) ListAuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		events, err = listAuditEventsTxn(txn, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

func (s *DocumentStore) ListProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error) {
	var activities []models.ProcessingActivity
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		activities, err = listActivitiesTxn(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list processing activities: %w", err)
	}
	return activities, nil
}

func (s *DocumentStore) ReplaceProcessingActivities(ctx context.Context, activities []models.ProcessingActivity) error {
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		stale, err := keysWithPrefix(txn, []byte(activityKeyPrefix))
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for _, activity := range activities {
			doc, err := json.Marshal(activity)
			if err != nil {
				return fmt.Errorf("encode activity document: %w", err)
			}
			if err := txn.Set(activityKey(activity.ID), doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace processing activities: %w", err)
	}
	return nil
}

func (s *DocumentStore) ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error) {
	export := &models.UserDataExport{UserID: userID}

	// One read transaction so the aggregate is a consistent snapshot.
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		if export.Consents, err = listConsentsTxn(txn, userID); err != nil {
			return err
		}
		if export.AuditTrail, err = listAuditEventsTxn(txn, userID); err != nil {
			return err
		}
		export.ProcessingActivities, err = listActivitiesTxn(txn)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("export user data: %w", err)
	}
	return export, nil
}

func (s *DocumentStore) EraseUserData(ctx context.Context, userID string) (int, error) {
	removed := 0
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		keys, err := keysWithPrefix(txn, consentUserPrefix(userID))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("erase user data: %w", err)
	}
	return removed, nil
}

func (s *DocumentStore) Backend() Backend { return BackendSecondary }

func (s *DocumentStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return sentinel.ErrUnavailable
	}
	return s.db.WithReadTxn(ctx, func(*badger.Txn) error { return nil })
}

func (s *DocumentStore) Close() error {
	err := s.auditSeq.Release()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func getConsentTxn(txn *badger.Txn, key []byte) (*models.ConsentRecord, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	var record models.ConsentRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	}); err != nil {
		return nil, fmt.Errorf("decode consent document: %w", err)
	}
	return &record, nil
}

func listConsentsTxn(txn *badger.Txn, userID string) ([]*models.ConsentRecord, error) {
	var records []*models.ConsentRecord
	err := scanPrefix(txn, consentUserPrefix(userID), func(val []byte) error {
		var record models.ConsentRecord
		if err := json.Unmarshal(val, &record); err != nil {
			return fmt.Errorf("decode consent document: %w", err)
		}
		records = append(records, &record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ConsentType < records[j].ConsentType })
	return records, nil
}

func listAuditEventsTxn(txn *badger.Txn, userID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := scanPrefix(txn, []byte(auditKeyPrefix), func(val []byte) error {
		var event models.AuditEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return fmt.Errorf("decode audit document: %w", err)
		}
		if userID != "" && event.UserID != userID {
			return nil
		}
		events = append(events, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func listActivitiesTxn(txn *badger.Txn) ([]models.ProcessingActivity, error) {
	var activities []models.ProcessingActivity
	err := scanPrefix(txn, []byte(activityKeyPrefix), func(val []byte) error {
		var activity models.ProcessingActivity
		if err := json.Unmarshal(val, &activity); err != nil {
			return fmt.Errorf("decode activity document: %w", err)
		}
		activities = append(activities, activity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID < activities[j].ID })
	return activities, nil
}

func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

func keysWithPrefix(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
