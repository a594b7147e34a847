package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// pqErr reports whether err is a postgres error with the given code on a constraint containing the given column.
func pqErr(err error, code pq.ErrorCode, column string) bool {
	pqe, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqe.Code != code {
		return false
	}
	return column == "" || strings.Contains(pqe.Constraint, column)
}

func orderBy(ordering []string) string {
	if len(ordering) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(ordering, ", ")
}
