package xerror

import "net/http"

const (
	CodeInternalError = http.StatusInternalServerError
	CodeUnableConnect = http.StatusServiceUnavailable
	CodeInvalidParams = http.StatusBadRequest
	CodeDataNotExist  = http.StatusNotFound
	CodeCallFailed    = http.StatusBadGateway
)

// dictionary and collector error kinds
const (
	CodeDictionaryUnavailable = 10001
	CodeDictionaryWrite       = 10002
	CodeSuggestionProcessing  = 10003
	CodeResourceRelease       = 10004
)

var ErrMsgs = map[int]string{
	CodeInternalError:         "service internal error",
	CodeInvalidParams:         "invalid request params",
	CodeDataNotExist:          "data not exist",
	CodeDictionaryUnavailable: "dictionary unavailable, a dictionary must be configured",
	CodeDictionaryWrite:       "dictionary could not be written",
	CodeSuggestionProcessing:  "suggestion could not be processed",
	CodeResourceRelease:       "resource could not be released",
}

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrDictionaryUnavailable = &Error{code: CodeDictionaryUnavailable, msg: ErrMsgs[CodeDictionaryUnavailable]}
	ErrDictionaryWrite       = &Error{code: CodeDictionaryWrite, msg: ErrMsgs[CodeDictionaryWrite]}
	ErrSuggestionProcessing  = &Error{code: CodeSuggestionProcessing, msg: ErrMsgs[CodeSuggestionProcessing]}
	ErrResourceRelease       = &Error{code: CodeResourceRelease, msg: ErrMsgs[CodeResourceRelease]}
)
