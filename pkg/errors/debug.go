package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain and any driver detail into loggable fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	DBCode       string `json:"db_code,omitempty"`
	DBConstraint string `json:"db_constraint,omitempty"`
	DBTable      string `json:"db_table,omitempty"`
	DBColumn     string `json:"db_column,omitempty"`
	DBDetail     string `json:"db_detail,omitempty"`
	DBMessage    string `json:"db_message,omitempty"`
}

const sqliteUniquePrefix = "UNIQUE constraint failed: "

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
		d.Retryable = MetadataFor(te.Code()).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.DBCode = pgxErr.Code
		d.DBConstraint = pgxErr.ConstraintName
		d.DBTable = pgxErr.TableName
		d.DBColumn = pgxErr.ColumnName
		d.DBDetail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.DBCode = string(pqErr.Code)
		d.DBConstraint = pqErr.Constraint
		d.DBTable = pqErr.Table
		d.DBColumn = pqErr.Column
		d.DBDetail = pqErr.Detail
		d.DBMessage = pqErr.Message
	default:
		d.fillSQLiteUnique(err.Error())
	}
	return d
}

// sqlite reports unique violations only as text, e.g.
// "UNIQUE constraint failed: payments.paid_ref".
func (d *ErrorDump) fillSQLiteUnique(msg string) {
	idx := strings.Index(msg, sqliteUniquePrefix)
	if idx < 0 {
		return
	}
	target := strings.TrimSpace(msg[idx+len(sqliteUniquePrefix):])
	if comma := strings.Index(target, ","); comma >= 0 {
		target = target[:comma]
	}
	d.DBMessage = msg[idx:]
	if table, column, ok := strings.Cut(target, "."); ok {
		d.DBTable = table
		d.DBColumn = column
		d.DBConstraint = table + "_" + column + "_key"
	}
}

// Fields returns the non-empty dump values keyed for structured logs.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if d.Retryable {
		fields["retryable"] = true
	}
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	for key, val := range map[string]string{
		"db_code":       d.DBCode,
		"db_constraint": d.DBConstraint,
		"db_table":      d.DBTable,
		"db_column":     d.DBColumn,
		"db_detail":     d.DBDetail,
		"db_message":    d.DBMessage,
	} {
		if val != "" {
			fields[key] = val
		}
	}
	return fields
}
