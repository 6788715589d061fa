package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true},
		{code: CodeVariantNotFound, status: http.StatusNotFound, publicMsg: "variant not found", detailsOK: true},
		{code: CodeSignatureMismatch, status: http.StatusBadRequest, publicMsg: "payment signature mismatch"},
		{code: CodeTransactionAborted, status: http.StatusConflict, publicMsg: "transaction aborted", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	plain := Newf(CodeNotFound, "order %s not found", "o-1")
	if plain.Error() != "NOT_FOUND: order o-1 not found" {
		t.Fatalf("unexpected error string %q", plain.Error())
	}
	wrapped := Wrap(CodeDependency, stdErrors.New("dial tcp: refused"), "carrier unavailable")
	if wrapped.Error() != "DEPENDENCY_ERROR: carrier unavailable: dial tcp: refused" {
		t.Fatalf("unexpected wrapped string %q", wrapped.Error())
	}
	var nilErr *Error
	if nilErr.Error() != "" || nilErr.Code() != CodeInternal || nilErr.WithDetails("x") != nil {
		t.Fatalf("nil receiver helpers should be safe")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsChain(t *testing.T) {
	inner := New(CodeInsufficientStock, "Only 2 available")
	outer := fmt.Errorf("place order: %w", inner)
	if !IsCode(outer, CodeInsufficientStock) {
		t.Fatalf("expected IsCode to find wrapped code")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatalf("unexpected match for other code")
	}
	if IsCode(stdErrors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestInsufficientStockCarriesShortfall(t *testing.T) {
	err := InsufficientStock("Insufficient stock for Toned Milk", StockShortfall{
		ProductID:   "p-1",
		ProductName: "Toned Milk",
		VariantSize: "1L",
		Requested:   3,
		Available:   2,
	})
	details, ok := err.Details().(StockShortfall)
	if !ok {
		t.Fatalf("expected StockShortfall details, got %T", err.Details())
	}
	if details.Requested-details.Available != 1 {
		t.Fatalf("unexpected shortfall %+v", details)
	}
}

func TestDumpIncludesPgFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "payments_paid_ref_key", TableName: "payments", Message: "duplicate key value"}
	err := Wrap(CodeConflict, fmt.Errorf("insert payment: %w", pgErr), "record payment")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if dump.DBCode != "23505" || dump.DBConstraint != "payments_paid_ref_key" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected chain of 3, got %d", len(dump.Chain))
	}
}

func TestDumpParsesSQLiteUniqueViolation(t *testing.T) {
	err := Wrap(CodeConflict, fmt.Errorf("UNIQUE constraint failed: payments.paid_ref"), "record payment")

	dump := Dump(err)
	if dump.DBTable != "payments" || dump.DBColumn != "paid_ref" {
		t.Fatalf("unexpected sqlite fields %+v", dump)
	}
	if dump.DBConstraint != "payments_paid_ref_key" {
		t.Fatalf("unexpected constraint %q", dump.DBConstraint)
	}
}

func TestDumpFieldsOmitsEmptyValues(t *testing.T) {
	fields := Dump(New(CodeValidation, "bad input")).Fields()
	if fields["error_code"] != CodeValidation {
		t.Fatalf("expected error_code, got %v", fields)
	}
	if _, ok := fields["db_code"]; ok {
		t.Fatalf("expected db_code to be omitted, got %v", fields)
	}
}
