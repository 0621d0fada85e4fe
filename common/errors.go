package common

import (
	"errors"
	"fmt"
	"net/http"
)

//
// Base Types
//

type BaseError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type ErrorCode string

func (e *BaseError) Unwrap() error {
	return e.Cause
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s -> %s", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) Base() *BaseError {
	return e
}

func (e *BaseError) CodeChain() string {
	if e.Cause != nil {
		var se StandardError
		if errors.As(e.Cause, &se) {
			return fmt.Sprintf("%s <- %s", e.Code, se.CodeChain())
		}
	}

	return string(e.Code)
}

type StandardError interface {
	error
	Base() *BaseError
	CodeChain() string
}

type ErrorWithStatusCode interface {
	ErrorStatusCode() int
}

type ErrorWithBody interface {
	ErrorResponseBody() interface{}
}

type RetryableError interface {
	RetryAfter() int
}

// HasErrorCode reports whether any error in the chain carries one of the given codes.
func HasErrorCode(err error, codes ...ErrorCode) bool {
	for err != nil {
		if se, ok := err.(StandardError); ok {
			for _, c := range codes {
				if se.Base().Code == c {
					return true
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ErrorMessage is the human readable text used in error envelopes.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var se StandardError
	if errors.As(err, &se) {
		if se.Base().Cause != nil {
			return fmt.Sprintf("%s: %s", se.Base().Message, ErrorMessage(se.Base().Cause))
		}
		return se.Base().Message
	}
	return err.Error()
}

// StatusCodeOf returns the HTTP status an error should be surfaced with.
func StatusCodeOf(err error) int {
	var httpErr ErrorWithStatusCode
	if errors.As(err, &httpErr) {
		return httpErr.ErrorStatusCode()
	}
	return http.StatusInternalServerError
}

// IsValidationError reports whether err was raised before any provider was contacted
// because the request itself is unacceptable.
func IsValidationError(err error) bool {
	return HasErrorCode(err,
		ErrCodeUnknownNetwork,
		ErrCodeUnknownMethod,
		ErrCodeMissingToken,
		ErrCodeInvalidTokenRef,
		ErrCodeBatchTooLarge,
	)
}

//
// Validation Errors
//

const ErrCodeUnknownNetwork ErrorCode = "ErrUnknownNetwork"

type ErrUnknownNetwork struct{ BaseError }

var NewErrUnknownNetwork = func(network string) error {
	return &ErrUnknownNetwork{
		BaseError{
			Code:    ErrCodeUnknownNetwork,
			Message: "Unknown network",
			Details: map[string]interface{}{
				"network":   network,
				"supported": SupportedNetworks(),
			},
		},
	}
}

func (e *ErrUnknownNetwork) ErrorStatusCode() int { return http.StatusBadRequest }

const ErrCodeUnknownMethod ErrorCode = "ErrUnknownMethod"

type ErrUnknownMethod struct{ BaseError }

var NewErrUnknownMethod = func(method string, supported []string) error {
	return &ErrUnknownMethod{
		BaseError{
			Code:    ErrCodeUnknownMethod,
			Message: "Unknown method",
			Details: map[string]interface{}{
				"method":    method,
				"supported": supported,
			},
		},
	}
}

func (e *ErrUnknownMethod) ErrorStatusCode() int { return http.StatusBadRequest }

const ErrCodeMissingToken ErrorCode = "ErrMissingToken"

type ErrMissingToken struct{ BaseError }

var NewErrMissingToken = func() error {
	return &ErrMissingToken{
		BaseError{
			Code:    ErrCodeMissingToken,
			Message: "Missing token(s)",
		},
	}
}

func (e *ErrMissingToken) ErrorStatusCode() int { return http.StatusBadRequest }

const ErrCodeInvalidTokenRef ErrorCode = "ErrInvalidTokenRef"

type ErrInvalidTokenRef struct{ BaseError }

var NewErrInvalidTokenRef = func(raw string, reason string) error {
	return &ErrInvalidTokenRef{
		BaseError{
			Code:    ErrCodeInvalidTokenRef,
			Message: fmt.Sprintf("Invalid token %q: %s", raw, reason),
			Details: map[string]interface{}{
				"token": raw,
			},
		},
	}
}

func (e *ErrInvalidTokenRef) ErrorStatusCode() int { return http.StatusBadRequest }

const ErrCodeBatchTooLarge ErrorCode = "ErrBatchTooLarge"

type ErrBatchTooLarge struct{ BaseError }

var NewErrBatchTooLarge = func(method string, count int, max int) error {
	return &ErrBatchTooLarge{
		BaseError{
			Code:    ErrCodeBatchTooLarge,
			Message: "Too many tokens",
			Details: map[string]interface{}{
				"method": method,
				"count":  count,
				"max":    max,
			},
		},
	}
}

func (e *ErrBatchTooLarge) ErrorStatusCode() int { return http.StatusBadRequest }

//
// Resolution Errors
//

const ErrCodeCollectionNotFound ErrorCode = "ErrCollectionNotFound"

type ErrCollectionNotFound struct{ BaseError }

var NewErrCollectionNotFound = func(chainId int64, contract string) error {
	return &ErrCollectionNotFound{
		BaseError{
			Code:    ErrCodeCollectionNotFound,
			Message: "No collection found",
			Details: map[string]interface{}{
				"chainId":  chainId,
				"contract": contract,
			},
		},
	}
}

func (e *ErrCollectionNotFound) ErrorStatusCode() int { return http.StatusNotFound }

const ErrCodeCustomHandler ErrorCode = "ErrCustomHandler"

type ErrCustomHandler struct{ BaseError }

var NewErrCustomHandler = func(handler string, cause error) error {
	return &ErrCustomHandler{
		BaseError{
			Code:    ErrCodeCustomHandler,
			Message: fmt.Sprintf("custom handler %s failed", handler),
			Cause:   cause,
			Details: map[string]interface{}{
				"handler": handler,
			},
		},
	}
}

func (e *ErrCustomHandler) ErrorStatusCode() int { return http.StatusInternalServerError }

const ErrCodeRequestTimeOut ErrorCode = "ErrRequestTimeOut"

type ErrRequestTimeOut struct{ BaseError }

var NewErrRequestTimeOut = func(timeout string) error {
	return &ErrRequestTimeOut{
		BaseError{
			Code:    ErrCodeRequestTimeOut,
			Message: "request timed out before any provider could respond",
			Details: map[string]interface{}{
				"timeout": timeout,
			},
		},
	}
}

func (e *ErrRequestTimeOut) ErrorStatusCode() int { return http.StatusGatewayTimeout }

//
// Provider Errors
//

const ErrCodeProviderThrottled ErrorCode = "ErrProviderThrottled"

// ErrProviderThrottled carries the provider's own back-off hint. It is never retried
// internally and always wins over partial results gathered in the same request.
type ErrProviderThrottled struct {
	BaseError
	DelaySeconds int
}

var NewErrProviderThrottled = func(provider string, message string, delaySeconds int) error {
	if message == "" {
		message = "Request was throttled"
	}
	return &ErrProviderThrottled{
		BaseError: BaseError{
			Code:    ErrCodeProviderThrottled,
			Message: message,
			Details: map[string]interface{}{
				"provider":     provider,
				"delaySeconds": delaySeconds,
			},
		},
		DelaySeconds: delaySeconds,
	}
}

func (e *ErrProviderThrottled) ErrorStatusCode() int { return http.StatusTooManyRequests }

func (e *ErrProviderThrottled) RetryAfter() int { return e.DelaySeconds }

func (e *ErrProviderThrottled) ErrorResponseBody() interface{} {
	return map[string]interface{}{
		"error":      e.Message,
		"expires_in": e.DelaySeconds,
	}
}

const ErrCodeProviderRequest ErrorCode = "ErrProviderRequest"

type ErrProviderRequest struct {
	BaseError
	StatusCode int
}

var NewErrProviderRequest = func(provider string, statusCode int, cause error, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["provider"] = provider
	if statusCode > 0 {
		details["statusCode"] = statusCode
	}
	return &ErrProviderRequest{
		BaseError: BaseError{
			Code:    ErrCodeProviderRequest,
			Message: fmt.Sprintf("request to %s failed", provider),
			Cause:   cause,
			Details: details,
		},
		StatusCode: statusCode,
	}
}

func (e *ErrProviderRequest) ErrorStatusCode() int { return http.StatusInternalServerError }

const ErrCodeProviderMalformedResponse ErrorCode = "ErrProviderMalformedResponse"

type ErrProviderMalformedResponse struct{ BaseError }

var NewErrProviderMalformedResponse = func(provider string, cause error) error {
	return &ErrProviderMalformedResponse{
		BaseError{
			Code:    ErrCodeProviderMalformedResponse,
			Message: fmt.Sprintf("malformed response from %s", provider),
			Cause:   cause,
			Details: map[string]interface{}{
				"provider": provider,
			},
		},
	}
}

func (e *ErrProviderMalformedResponse) ErrorStatusCode() int { return http.StatusInternalServerError }

const ErrCodeUnsupportedChain ErrorCode = "ErrUnsupportedChain"

type ErrUnsupportedChain struct{ BaseError }

var NewErrUnsupportedChain = func(provider string, chainId int64) error {
	return &ErrUnsupportedChain{
		BaseError{
			Code:    ErrCodeUnsupportedChain,
			Message: "Unsupported chain id",
			Details: map[string]interface{}{
				"provider": provider,
				"chainId":  chainId,
			},
		},
	}
}

func (e *ErrUnsupportedChain) ErrorStatusCode() int { return http.StatusInternalServerError }
