package pgstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/inventory/internal/core"
)

// PostgreSQL SQLSTATE codes the store translates.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// toNumeric converts a decimal to pgtype.Numeric without going through text.
func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// toNullNumeric maps an absent weight to SQL NULL.
func toNullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{Valid: false}
	}
	return toNumeric(d.Decimal)
}

func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if n.Valid && (n.NaN || n.InfinityModifier != pgtype.Finite) {
		return decimal.Zero, fmt.Errorf("numeric value is not finite")
	}
	if !n.Valid || n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func fromNullNumeric(n pgtype.Numeric) (decimal.NullDecimal, error) {
	if !n.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := fromNumeric(n)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// validID reports whether id can address a row. Ids are UUID columns, so
// anything else cannot match and is reported as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError translates driver errors into core sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, core.ErrDuplicateKey)
		case foreignKeyViolation:
			if op == "delete category" {
				return fmt.Errorf("%s: %w", op, core.ErrCategoryInUse)
			}
			return fmt.Errorf("%s: %w", op, core.ErrReferenceNotFound)
		}
	}

	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}
