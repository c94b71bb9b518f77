package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST   ErrCode = "REQUEST_FAILED"
	BAD_REQUEST      ErrCode = "FAILED_TO_DECODE"
	VALIDATION       ErrCode = "VALIDATION_FAILED"
	NOT_FOUND        ErrCode = "NOT_FOUND"
	LOCKED           ErrCode = "LOCKED"
	CONFLICT         ErrCode = "CONFLICT"
	INVALID_INTERVAL ErrCode = "INVALID_INTERVAL"
	INVALID_TIME     ErrCode = "INVALID_TIME"
)

var (
	ErrBadRequest      = errors.New("bad request")
	ErrInvalidId       = errors.New("invalid id")
	ErrNotFound        = errors.New("resource not found")
	ErrLocked          = errors.New("resource is locked")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInterval = errors.New("start time must be before end time")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

// FromValidation renders a validate.Struct error. Anything that is not a
// validator.ValidationErrors becomes a plain bad request.
func FromValidation(err error) Response {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Error(string(BAD_REQUEST), "invalid request: "+err.Error())
	}

	return ValidationError(verrs)
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("field '%s' is required", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("field '%s' must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("field '%s' must be at most %s characters long", err.Field(), err.Param()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("field '%s' must be one of [%s]", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("field '%s' is invalid", err.Field()))
		}
	}

	return Error(string(VALIDATION), strings.Join(errMsg, ", "))
}
