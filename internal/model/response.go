package model

// BasicResponse is the JSON envelope of the /api/admin endpoints. Code is
// SuccessCode on success; failures carry one of the error codes below.
type BasicResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

const (
	SuccessCode = "000000"
	ErrorCode   = "999999"

	// NoSessionCode: the request carries no valid session.
	NoSessionCode = "100401"
	// UnresolvedCode: the session could not be checked in time.
	UnresolvedCode = "100503"
	// UnknownTabCode: the path names no list.
	UnknownTabCode = "200400"
	// ListUnavailableCode: the list's subscription failed or timed out.
	ListUnavailableCode = "200503"
)

// Success wraps data with a success code.
func Success(msg string, data any) BasicResponse {
	return BasicResponse{
		Code: SuccessCode,
		Msg:  msg,
		Data: data,
	}
}

// Error returns a BasicResponse with the default error code.
func Error(msg string) BasicResponse {
	return ErrorWithCode(ErrorCode, msg)
}

// ErrorWithCode returns a failure envelope with a specific code.
func ErrorWithCode(code, msg string) BasicResponse {
	return BasicResponse{
		Code: code,
		Msg:  msg,
	}
}
