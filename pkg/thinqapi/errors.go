package thinqapi

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedCountry = errors.New("unsupported country")
	ErrMissingToken       = errors.New("access token is required")
	ErrBadResponse        = errors.New("bad response body")
)

// APIError is a failure reported by the ThinQ API, either through an error
// body or through a non-2xx status without one.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("thinq api %d: %s (%s)", e.Status, e.Name, e.Code)
	}
	return fmt.Sprintf("thinq api %d: %s (%s): %s", e.Status, e.Name, e.Code, e.Message)
}

// Retryable reports codes the server itself flags as transient.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case "2209", "2210", "2212":
		return true
	}
	return false
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Name: ErrorName(code), Message: message}
}

// ErrorName returns the symbolic name for a ThinQ error code.
func ErrorName(code string) string {
	if name, ok := errorCodes[code]; ok {
		return name
	}
	return errorCodes["0000"]
}

var errorCodes = map[string]string{
	"0000": "UNKNOWN_ERROR",
	"1000": "BAD_REQUEST",
	"1101": "MISSING_PARAMETERS",
	"1102": "UNACCEPTABLE_PARAMETERS",
	"1103": "INVALID_TOKEN",
	"1104": "INVALID_MESSAGE_ID",
	"1201": "NOT_REGISTERED_ADMIN",
	"1202": "NOT_REGISTERED_USER",
	"1203": "NOT_REGISTERED_SERVICE",
	"1204": "NOT_SUBSCRIBED_EVENT",
	"1205": "NOT_REGISTERED_DEVICE",
	"1206": "NOT_SUBSCRIBED_PUSH",
	"1207": "ALREADY_SUBSCRIBED_PUSH",
	"1208": "NOT_REGISTERED_SERVICE_BY_ADMIN",
	"1209": "NOT_REGISTERED_USER_IN_SERVICE",
	"1210": "NOT_REGISTERED_DEVICE_IN_SERVICE",
	"1211": "NOT_REGISTERED_DEVICE_BY_USER",
	"1212": "NOT_OWNED_DEVICE",
	"1213": "NOT_REGISTERED_DEVICE",
	"1214": "NOT_SUBSCRIBABLE_DEVICE",
	"1216": "INCORRECT_HEADER",
	"1217": "ALREADY_DEVICE_DELETED",
	"1218": "INVALID_TOKEN",
	"1219": "NOT_SUPPORTED_MODEL",
	"1220": "NOT_SUPPORTED_FEATURE",
	"1221": "NOT_SUPPORTED_PRODUCT",
	"1222": "NOT_CONNECTED_DEVICE",
	"1223": "INVALID_STATUS_DEVICE",
	"1224": "INVALID_DEVICE_ID",
	"1225": "DUPLICATE_DEVICE_ID",
	"1301": "INVALID_SERVICE_KEY",
	"1302": "NOT_FOUND_TOKEN",
	"1303": "NOT_FOUND_USER",
	"1304": "NOT_ACCEPTABLE_TERMS",
	"1305": "NOT_ALLOWED_API",
	"1306": "EXCEEDED_API_CALLS",
	"1307": "NOT_SUPPORTED_COUNTRY",
	"1308": "NO_CONTROL_AUTHORITY",
	"1309": "NOT_ALLOWED_API",
	"1310": "NOT_SUPPORTED_DOMAIN",
	"1311": "BAD_REQUEST_FORMAT",
	"1312": "EXCEEDED_NUMBER_OF_EVENT_SUBSCRIPTION",
	"2000": "INTERNAL_SERVER_ERROR",
	"2101": "NOT_SUPPORTED_MODEL",
	"2201": "NOT_PROVIDED_FEATURE",
	"2202": "NOT_SUPPORTED_PRODUCT",
	"2203": "NOT_EXISTENT_MODEL_JSON",
	"2205": "INVALID_DEVICE_STATUS",
	"2207": "INVALID_COMMAND_ERROR",
	"2208": "FAIL_DEVICE_CONTROL",
	"2209": "DEVICE_RESPONSE_DELAY",
	"2210": "RETRY_REQUEST",
	"2212": "SYNCING",
	"2213": "RETRY_AFTER_DELETING_DEVICE",
	"2214": "FAIL_REQUEST",
	"2301": "COMMAND_NOT_SUPPORTED_IN_REMOTE_OFF",
	"2302": "COMMAND_NOT_SUPPORTED_IN_STATE",
	"2303": "COMMAND_NOT_SUPPORTED_IN_ERROR",
	"2304": "COMMAND_NOT_SUPPORTED_IN_POWER_OFF",
	"2305": "COMMAND_NOT_SUPPORTED_IN_MODE",
}
