package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Licores-api/internal/domain"
)

// Querier lo que los repositorios necesitan de un *pgxpool.Pool o de una pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Códigos SQLSTATE que el motor trata de forma especial.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03" // también lo devuelve lock_timeout
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isLockConflict deadlock, lock timeout o fallo de serialización: la operación puede reintentarse.
func isLockConflict(err error) bool {
	switch pgCode(err) {
	case codeDeadlockDetected, codeLockNotAvailable, codeSerializationFailure:
		return true
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// wrapErr envuelve err con op y lo asocia al error de dominio correspondiente cuando aplica.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrDuplicate, err)
	case isLockConflict(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrLockConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
