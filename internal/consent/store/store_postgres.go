package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tutela/internal/consent/models"
	"tutela/internal/sentinel"
)

// PostgresStore is the primary repository: consent data in PostgreSQL
// through database/sql with the pgx driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const consentColumns = "id, user_id, consent_type, granted, purpose, ip_address, metadata, timestamp, withdrawn_at"

func (s *PostgresStore) SaveConsent(ctx context.Context, record *models.ConsentRecord) (*models.ConsentRecord, error) {
	if record == nil {
		return nil, sentinel.ErrInvalidInput
	}
	metadata, err := encodeMap(record.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode consent metadata: %w", err)
	}

	// The conflict arm keeps the stored id, so the pair keeps its identity
	// across re-grants; a fresh decision always clears withdrawn_at.
	query := `
		INSERT INTO consent_records (id, user_id, consent_type, granted, purpose, ip_address, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, consent_type) DO UPDATE SET
			granted = EXCLUDED.granted,
			purpose = EXCLUDED.purpose,
			ip_address = EXCLUDED.ip_address,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp,
			withdrawn_at = NULL
		RETURNING ` + consentColumns + `
	`
	stored, err := scanConsent(s.db.QueryRowContext(ctx, query,
		record.ID,
		record.UserID,
		record.ConsentType,
		record.Granted,
		record.Purpose,
		nullString(record.OriginIP),
		metadata,
		record.Timestamp,
	))
	if err != nil {
		return nil, fmt.Errorf("save consent: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) GetConsent(ctx context.Context, userID, consentType string) (*models.ConsentRecord, error) {
	query := `
		SELECT ` + consentColumns + `
		FROM consent_records
		WHERE user_id = $1 AND consent_type = $2
	`
	record, err := scanConsent(s.db.QueryRowContext(ctx, query, userID, consentType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get consent: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) WithdrawConsent(ctx context.Context, userID, consentType string, at time.Time) (*models.ConsentRecord, error) {
	query := `
		UPDATE consent_records
		SET withdrawn_at = $3
		WHERE user_id = $1 AND consent_type = $2 AND withdrawn_at IS NULL
		RETURNING ` + consentColumns + `
	`
	record, err := scanConsent(s.db.QueryRowContext(ctx, query, userID, consentType, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("withdraw consent: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListConsents(ctx context.Context, userID string) ([]*models.ConsentRecord, error) {
	query := `
		SELECT ` + consentColumns + `
		FROM consent_records
		WHERE user_id = $1
		ORDER BY consent_type
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var records []*models.ConsentRecord
	for rows.Next() {
		record, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consents: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) LogAuditEvent(ctx context.Context, event models.AuditEvent) error {
	details, err := encodeMap(event.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	query := `
		INSERT INTO audit_events (timestamp, action, user_id, details)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query, event.Timestamp, event.Action, nullString(event.UserID), details); err != nil {
		return fmt.Errorf("log audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditEvents(ctx context.Context, userID string) ([]models.AuditEvent, error) {
	query := `
		SELECT id, timestamp, action, user_id, details
		FROM audit_events
	`
	var args []any
	if userID != "" {
		query += " WHERE user_id = $1"
		args = append(args, userID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []models.AuditEvent
	for rows.Next() {
		var (
			event      models.AuditEvent
			eventUser  sql.NullString
			rawDetails []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &event.Action, &eventUser, &rawDetails); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.UserID = eventUser.String
		if event.Details, err = decodeMap(rawDetails); err != nil {
			return nil, fmt.Errorf("decode audit details: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) ListProcessingActivities(ctx context.Context) ([]models.ProcessingActivity, error) {
	query := `
		SELECT id, name, purpose, legal_basis, data_categories, recipients, retention_period, security_measures, created_at
		FROM processing_activities
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list processing activities: %w", err)
	}
	defer rows.Close()

	var activities []models.ProcessingActivity
	for rows.Next() {
		var (
			activity   models.ProcessingActivity
			categories []byte
			recipients []byte
			measures   []byte
		)
		if err := rows.Scan(&activity.ID, &activity.Name, &activity.Purpose, &activity.LegalBasis,
			&categories, &recipients, &activity.RetentionPeriod, &measures, &activity.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan processing activity: %w", err)
		}
		if activity.DataCategories, err = decodeStrings(categories); err != nil {
			return nil, fmt.Errorf("decode data categories: %w", err)
		}
		if activity.Recipients, err = decodeStrings(recipients); err != nil {
			return nil, fmt.Errorf("decode recipients: %w", err)
		}
		if activity.SecurityMeasures, err = decodeStrings(measures); err != nil {
			return nil, fmt.Errorf("decode security measures: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processing activities: %w", err)
	}
	return activities, nil
}

func (s *PostgresStore) ReplaceProcessingActivities(ctx context.Context, activities []models.ProcessingActivity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace activities: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM processing_activities`); err != nil {
		return fmt.Errorf("clear processing activities: %w", err)
	}

	const insert = `
		INSERT INTO processing_activities (id, name, purpose, legal_basis, data_categories, recipients, retention_period, security_measures, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, activity := range activities {
		categories, err := encodeStrings(activity.DataCategories)
		if err != nil {
			return fmt.Errorf("encode data categories: %w", err)
		}
		recipients, err := encodeStrings(activity.Recipients)
		if err != nil {
			return fmt.Errorf("encode recipients: %w", err)
		}
		measures, err := encodeStrings(activity.SecurityMeasures)
		if err != nil {
			return fmt.Errorf("encode security measures: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insert,
			activity.ID,
			activity.Name,
			activity.Purpose,
			activity.LegalBasis,
			categories,
			recipients,
			activity.RetentionPeriod,
			measures,
			activity.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert processing activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace activities: %w", err)
	}
	return nil
}

func (s *PostgresStore) ExportUserData(ctx context.Context, userID string) (*models.UserDataExport, error) {
	export := &models.UserDataExport{UserID: userID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consents, err := s.ListConsents(ctx, userID)
		if err != nil {
			return err
		}
		export.Consents = consents
		return nil
	})
	g.Go(func() error {
		events, err := s.ListAuditEvents(ctx, userID)
		if err != nil {
			return err
		}
		export.AuditTrail = events
		return nil
	})
	g.Go(func() error {
		activities, err := s.ListProcessingActivities(ctx)
		if err != nil {
			return err
		}
		export.ProcessingActivities = activities
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export user data: %w", err)
	}
	return export, nil
}

func (s *PostgresStore) EraseUserData(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM consent_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("erase user data: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erase user data rows: %w", err)
	}
	return int(removed), nil
}

func (s *PostgresStore) Backend() Backend { return BackendPrimary }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type consentRow interface {
	Scan(dest ...any) error
}

func scanConsent(row consentRow) (*models.ConsentRecord, error) {
	var (
		record      models.ConsentRecord
		originIP    sql.NullString
		metadata    []byte
		withdrawnAt sql.NullTime
	)
	if err := row.Scan(&record.ID, &record.UserID, &record.ConsentType, &record.Granted,
		&record.Purpose, &originIP, &metadata, &record.Timestamp, &withdrawnAt); err != nil {
		return nil, err
	}
	record.OriginIP = originIP.String

	meta, err := decodeMap(metadata)
	if err != nil {
		return nil, fmt.Errorf("decode consent metadata: %w", err)
	}
	record.Metadata = meta

	if withdrawnAt.Valid {
		t := withdrawnAt.Time
		record.WithdrawnAt = &t
	}
	return &record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeMap(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	return json.Marshal(m)
}

func decodeMap(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func encodeStrings(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func decodeStrings(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}
