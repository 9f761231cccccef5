package errs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

var (
	mysqlDuplicateValue    = regexp.MustCompile(`Duplicate entry '(.*)' for key`)
	postgresDuplicateValue = regexp.MustCompile(`\)=\((.*)\) already exists`)
)

// Translate turns errors coming from the database, the validator, the JSON
// decoder or the token parser into client facing errors. Unknown errors become
// non-operational 500s.
func Translate(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("No document found with that ID")
	}
	if value, ok := duplicateValue(err); ok {
		return BadRequest(fmt.Sprintf("Duplicated field value: %s. Please use another value!", value))
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		messages := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			messages = append(messages, FieldMessage(fe))
		}
		return Validation(messages...)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return BadRequest(fmt.Sprintf("Invalid JSON body: %s", syntaxErr.Error()))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return InvalidID(typeErr.Field, typeErr.Value)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return Unauthorized("Your token has expired! Please log in again.")
	}
	if errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) ||
		errors.Is(err, jwt.ErrTokenInvalidClaims) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) {
		return Unauthorized("Invalid token. Please log in again!")
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return New("Request body too large", http.StatusRequestEntityTooLarge)
	}
	return Internal(err)
}

// Validation builds the 400 returned when an entity fails its rules.
func Validation(messages ...string) *AppError {
	return BadRequest("Invalid input data. " + strings.Join(messages, ". "))
}

// FieldMessage renders a single validator failure.
func FieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return fmt.Sprintf("%s is either: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must have more or equal than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be above or equal to %s", field, fe.Param())
	case "max", "lte":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must have less or equal than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be below or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "eqfield":
		return "Passwords are not the same!"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func duplicateValue(err error) (string, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		if m := mysqlDuplicateValue.FindStringSubmatch(mysqlErr.Message); m != nil {
			return quote(m[1]), true
		}
		return "", true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolate {
		if m := postgresDuplicateValue.FindStringSubmatch(pgErr.Detail); m != nil {
			return quote(m[1]), true
		}
		return pgErr.ConstraintName, true
	}
	// sqlite only reports the column
	if msg := err.Error(); strings.HasPrefix(msg, "UNIQUE constraint failed: ") {
		return strings.TrimPrefix(msg, "UNIQUE constraint failed: "), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

func quote(s string) string {
	return `"` + s + `"`
}
