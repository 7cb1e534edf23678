package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

// ErrNotFound is returned when no record exists for a lookup key.
var ErrNotFound = errors.New("verification record not found")

// VerificationRepository persists verification outcomes. Writes are
// append-only; a verification id that is validated twice produces two rows.
type VerificationRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewVerificationRepository constructs a repository.
func NewVerificationRepository(pool *pgxpool.Pool, logger *zap.Logger) *VerificationRepository {
	return &VerificationRepository{pool: pool, logger: logger}
}

// Create inserts one verification record. It never updates existing rows.
func (r *VerificationRepository) Create(ctx context.Context, rec *model.VerificationRecord) error {
	result, err := json.Marshal(rec.ValidationResult)
	if err != nil {
		return fmt.Errorf("marshal validation result: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO verifications (verification_id, ts, image_key, registration_number, validation_result, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, rec.VerificationID, rec.Timestamp, rec.ImageKey, rec.RegistrationNumber, result, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	r.logger.Info("verification record stored",
		zap.String("verification_id", rec.VerificationID),
		zap.Bool("found", rec.ValidationResult.Found))
	return nil
}

// GetByID returns the most recent record for a verification id.
func (r *VerificationRepository) GetByID(ctx context.Context, verificationID string) (*model.VerificationRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT verification_id, ts, image_key, registration_number, validation_result, expires_at
		FROM verifications
		WHERE verification_id=$1
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`, verificationID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select verification: %w", err)
	}
	return rec, nil
}

// ListByRegistrationNumber returns records for a registration number, newest
// first. Records without a number never appear here.
func (r *VerificationRepository) ListByRegistrationNumber(ctx context.Context, registrationNumber string, limit int) ([]*model.VerificationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT verification_id, ts, image_key, registration_number, validation_result, expires_at
		FROM verifications
		WHERE registration_number=$1
		ORDER BY ts DESC, id DESC
		LIMIT $2
	`, registrationNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("select verifications by number: %w", err)
	}
	defer rows.Close()

	var records []*model.VerificationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Error("scan verification row", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteExpired removes records whose retention deadline has passed and
// reports how many were purged.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM verifications WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRecord(row pgx.Row) (*model.VerificationRecord, error) {
	var (
		rec    model.VerificationRecord
		result []byte
	)
	if err := row.Scan(&rec.VerificationID, &rec.Timestamp, &rec.ImageKey, &rec.RegistrationNumber, &result, &rec.ExpiresAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(result, &rec.ValidationResult); err != nil {
		return nil, fmt.Errorf("unmarshal validation result: %w", err)
	}
	return &rec, nil
}
