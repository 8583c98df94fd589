package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/contentfilter/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode returns the category of a database error.
//
// Behavior:
//   - If any error in err's chain is a *sqlerr.Error, its Code is returned.
//   - Anything else, including nil, reports sqlerr.Other.
//
// Use it when an error was already normalized by ConvertPgError and you only
// need to branch on its kind (unique violation, not null, ...).
func ErrCode(err error) Code {
	var pgerr *Error
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return Other
}

// ConvertPgError turns a raw *pgconn.PgError into a *sqlerr.Error.
//
// The Postgres error carries:
//   - Code, the five character SQLSTATE
//   - Severity
//   - schema, table, column and constraint names when they apply
//
// SQLSTATE and severity are mapped onto our own enums so callers can switch on
// them. The original error stays reachable through Unwrap.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// singular strips one trailing "s": smiles -> smile.
func singular(s string) string {
	if len(s) > 1 && strings.HasSuffix(strings.ToLower(s), "s") {
		return s[:len(s)-1]
	}
	return s
}

// generateErrorCode builds the machine readable code sent in error bodies.
//
// Format:
//
//	<ENTITY>_<ACTION>
//
// Example:
//
//	smiles + UniqueViolation => SMILE_ALREADY_EXISTS
//
// ENTITY is the table name, uppercased and stripped of one trailing "s".
// ACTION follows the violation type. Clients match on these codes, so keep
// them stable.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}
	domain := strings.ToUpper(singular(tableName))

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, StringTooLong, InvalidText:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// formatUserFriendlyMessage writes the message shown to API clients.
//
// It is not meant for logs: it names the entity and field in plain words and
// never leaks SQL details.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation, StringTooLong, InvalidText:
		if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"
	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName guesses the entity a row belongs to.
//
// Priority:
//  1. A foreign key column ending in "_id" names its target.
//     e.g. "smile_id" -> "Smile"
//  2. Otherwise the table name, singularized.
//  3. Otherwise "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		return humanizeText(strings.TrimSuffix(strings.ToLower(columnName), "_id"))
	}
	if tableName != "" {
		return humanizeText(singular(tableName))
	}
	return "record"
}

// humanizeText turns a snake_case identifier into Title Case.
//
// Example:
//
//	"smile_url" -> "Smile Url"
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var keyConstraint = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// extractColumnForUniqueViolation recovers the column from a unique
// constraint name. Two naming conventions are understood:
//
//  1. "unique_<table>_<column>"
//  2. "<table>_<column>_key" (the Postgres default) or "..._ukey"
//
// It returns "" when the name fits neither.
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if m := keyConstraint.FindStringSubmatch(constraintName); len(m) > 1 {
		return m[1]
	}
	return ""
}

// tablePrefix marks a no-rows error with the table it came from, as in
// fmt.Errorf("table:smiles: %w", pgx.ErrNoRows).
const tablePrefix = "table:"

// NoRows wraps pgx.ErrNoRows with the table name HandleError reads back.
func NoRows(table string) error {
	return fmt.Errorf("%s%s: %w", tablePrefix, table, pgx.ErrNoRows)
}

// HandleError converts a database error into an *errs.HTTPError.
//
// Order of checks:
//  1. An error that already is an *errs.HTTPError passes through untouched.
//  2. A *pgconn.PgError becomes a 400 with a generated code and a readable
//     message. Not null violations also carry a field error.
//  3. A no-rows error becomes a 404. When it was built with NoRows the code
//     names the table, e.g. SMILE_NOT_FOUND.
//  4. Everything else is a generic 500 so internals never reach the client.
//
// Repositories return raw errors and services call HandleError at the edge.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
		userMessage := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation:
			return errs.NewBadRequestError(userMessage, false, &errorCode, nil, nil)

		case UniqueViolation:
			if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
				userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(column))
			}
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

		case NotNullViolation:
			fieldErrors := []errs.FieldError{{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			}}
			return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)

		case CheckViolation, StringTooLong, InvalidText:
			return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)

		default:
			return errs.NewInternalServerError()
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		msg := err.Error()
		if i := strings.Index(msg, tablePrefix); i >= 0 {
			table, _, _ := strings.Cut(msg[i+len(tablePrefix):], ":")
			code := strings.ToUpper(singular(table)) + "_NOT_FOUND"
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", getEntityName(table, "")), true, &code)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
