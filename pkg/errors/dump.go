package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PostgresDiagnostics carries the server-side fields of a postgres error.
type PostgresDiagnostics struct {
	Code       string `json:"pg_code"`
	Constraint string `json:"pg_constraint,omitempty"`
	Table      string `json:"pg_table,omitempty"`
	Detail     string `json:"pg_detail,omitempty"`
}

// ErrorDump flattens an error for structured request logs.
type ErrorDump struct {
	TopMessage string               `json:"top_message"`
	Code       Code                 `json:"code,omitempty"`
	Chain      []string             `json:"chain,omitempty"`
	Postgres   *PostgresDiagnostics `json:"postgres,omitempty"`
}

// Dump walks the unwrap chain of err. Joined errors contribute only their first branch.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), Postgres: postgresDiagnostics(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

// Fields renders the dump as logger fields.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_detail"] = pg.Detail
	}
	return fields
}

// postgresDiagnostics understands both drivers in the tree: pgx behind gorm and
// lib/pq behind goose.
func postgresDiagnostics(err error) *PostgresDiagnostics {
	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		return &PostgresDiagnostics{Code: pgErr.Code, Constraint: pgErr.ConstraintName, Table: pgErr.TableName, Detail: pgErr.Detail}
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return &PostgresDiagnostics{Code: string(pqErr.Code), Constraint: pqErr.Constraint, Table: pqErr.Table, Detail: pqErr.Detail}
	}
	return nil
}
