package mw

type respErrorType int

const (
	respNoError respErrorType = iota
	respClientError
	respServerError
)

// httpRespErrorTypeFromStatusCode returns response error type depending on HTTP status code.
func httpRespErrorTypeFromStatusCode(statusCode int) respErrorType {
	switch {
	case statusCode < 400:
		return respNoError
	case statusCode < 500:
		return respClientError
	default:
		return respServerError
	}
}
