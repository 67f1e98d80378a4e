package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"coop-backoffice/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// isRetryableTxError reports whether the transaction failed because of
// concurrent access and can be retried (serialization failure, deadlock,
// lock not available).
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// mapTxError converts driver-level concurrency failures to domain.ErrConflict
// so callers can decide to retry.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if isRetryableTxError(err) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

// placeholders builds "$off, $off+1, ..." for n values.
func placeholders(n, offset int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", offset+i)
	}
	return strings.Join(parts, ", ")
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
