package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a code plus a client-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// IsConstraintViolation reports whether err is a store-enforced integrity failure:
// unique, foreign key, not-null or check constraint.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	errLower := strings.ToLower(err.Error())
	return isUniqueViolation(errLower) ||
		strings.Contains(errLower, "foreign key constraint") ||
		strings.Contains(errLower, "not-null constraint") ||
		strings.Contains(errLower, "not null constraint") ||
		strings.Contains(errLower, "check constraint")
}

// postgres: "duplicate key value violates unique constraint", sqlite: "UNIQUE constraint failed"
func isUniqueViolation(errLower string) bool {
	return strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint")
}

// ParseError maps a store error that escaped the service layer to a response code.
// Messages never include driver text.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Internal server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: fmt.Sprintf("%s not found", context)}
	}

	errLower := strings.ToLower(err.Error())

	// ids are store-assigned, so the only unique index a business write can hit is the active name
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(errLower) {
		if context == "business" || strings.Contains(errLower, "name") {
			return ErrorInfo{Code: BusinessNameExists, Message: "An active business with this name already exists"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
	}

	if IsConstraintViolation(err) {
		return ErrorInfo{Code: ResourceConflict, Message: fmt.Sprintf("%s violates a data constraint", context)}
	}

	return ErrorInfo{Code: InternalDatabaseError, Message: fmt.Sprintf("Failed to process %s. Please try again later", context)}
}

// ParseValidationError flattens binding failures into a field -> rule map.
// ok is false when err is not a validation or JSON decoding error.
func ParseValidationError(err error) (fields map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule = fmt.Sprintf("%s=%s", rule, fe.Param())
			}
			fields[jsonFieldName(fe)] = rule
		}
		return fields, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return map[string]string{typeErr.Field: "type=" + typeErr.Type.String()}, true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string]string{"body": "malformed JSON"}, true
	}

	return nil, false
}

// jsonFieldName turns a validator namespace like "CreateBusinessRequest.Policy.MaxLeadTimeDays"
// into a dotted path without the root struct.
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		ns = ns[idx+1:]
	}
	return ns
}
