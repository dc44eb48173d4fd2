package postgres

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialecto $n
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// dialect construye SQL con placeholders $n para ejecutarlo con pgx.
var dialect = goqu.Dialect("postgres")

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// isForeignKeyViolation verifica si un error es una violación de clave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

// isNumericOutOfRange verifica si un cálculo desbordó el tipo de la columna (22003).
func isNumericOutOfRange(err error) bool {
	return pgCode(err) == "22003"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// validUUID indica si id tiene formato UUID; los ids mal formados se tratan como inexistentes.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validUUIDs filtra los ids con formato UUID.
func validUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
