package errors

import "fmt"

// BridgeError is the JSON error body returned by the bridge API.
type BridgeError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Error codes for the authorization bridge.
const (
	MissingState      = "missing_state"
	MissingParameters = "missing_parameters"
	UnknownProvider   = "unknown_provider"
	ProviderError     = "provider_error"
	ExchangeFailed    = "exchange_failed"
	InvalidRequest    = "invalid_request"
	ServerError       = "server_error"
)

// Common error constructors
func NewMissingState() *BridgeError {
	return &BridgeError{
		Code: MissingState,
	}
}

func NewMissingParameters(description string) *BridgeError {
	return &BridgeError{
		Code:        MissingParameters,
		Description: description,
	}
}

func NewUnknownProvider(name string) *BridgeError {
	return &BridgeError{
		Code:        UnknownProvider,
		Description: fmt.Sprintf("provider %q is not configured", name),
	}
}

func NewProviderError(description string) *BridgeError {
	return &BridgeError{
		Code:        ProviderError,
		Description: description,
	}
}

func NewExchangeFailed(description string) *BridgeError {
	return &BridgeError{
		Code:        ExchangeFailed,
		Description: description,
	}
}

func NewInvalidRequest(description string) *BridgeError {
	return &BridgeError{
		Code:        InvalidRequest,
		Description: description,
	}
}

func NewServerError(description string) *BridgeError {
	return &BridgeError{
		Code:        ServerError,
		Description: description,
	}
}
