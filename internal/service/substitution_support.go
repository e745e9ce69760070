package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Clock returns the current instant; tests substitute a fixed one.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// withTx runs fn in a transaction. Any error rolls back; plain errors surface as persistence failures.
func withTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) error {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider not configured")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Persistence(err, "failed to start transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return asAppError(err, "failed to persist substitution changes")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Persistence(err, "failed to commit transaction")
	}
	return nil
}

// retryRead retries an idempotent read once when the store fails. Missing rows are not retried.
func retryRead[T any](ctx context.Context, logger *zap.Logger, label string, read func() (T, error)) (T, error) {
	result, err := read()
	if err == nil || errors.Is(err, sql.ErrNoRows) || ctx.Err() != nil {
		return result, err
	}
	logger.Warn("read failed, retrying once", zap.String("read", label), zap.Error(err))
	return read()
}

func asAppError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, repository.ErrDuplicateActive) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "period already has an active substitution")
	}
	return appErrors.Persistence(err, message)
}

func emitAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, entry *models.AuditLog) {
	if audit == nil || entry == nil {
		return
	}
	if entry.IPAddress == "" {
		entry.IPAddress = "system"
	}
	if entry.UserAgent == "" {
		entry.UserAgent = "substitution-service"
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to persist audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func auditPayload(v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD")
	}
	return date, nil
}

func strPtr(value string) *string {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
