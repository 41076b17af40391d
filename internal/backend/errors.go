package backend

import (
	"errors"
	"fmt"
)

// FallbackMessage is shown when a failure carries no usable message.
const FallbackMessage = "Erro na comunicação com o servidor"

// UploadFallbackMessage replaces FallbackMessage for file uploads.
const UploadFallbackMessage = "Erro no upload do arquivo"

// APIError is returned when the backend answers with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error %d", e.Status)
}

// TransportError covers unreachable backends and bodies that are not JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "backend: " + e.Op
	}
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// UserMessage returns the text shown to the operator for err. Only backend
// answers are shown verbatim; transport failures get FallbackMessage.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return FallbackMessage
}

// UploadMessage is UserMessage for a failed upload: the backend's own message
// when it sent one, UploadFallbackMessage otherwise.
func UploadMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return UploadFallbackMessage
}
