package errors

import "net/http"

// ErrorCode is a string identifier for a specific error condition.
// Codes are grouped by module prefix: COMMON, ASSESS, PORT, NEWS, AI.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeUnauthorized    ErrorCode = "COMMON_003"
	ErrCodeForbidden       ErrorCode = "COMMON_004"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeConflict        ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests ErrorCode = "COMMON_007"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeExternalService ErrorCode = "COMMON_014"
)

// Assessment module error codes.
const (
	ErrCodeAssessmentNotFound   ErrorCode = "ASSESS_001"
	ErrCodeScoreNotFound        ErrorCode = "ASSESS_002"
	ErrCodeInvalidRating        ErrorCode = "ASSESS_003"
	ErrCodeAnalysisInProgress   ErrorCode = "ASSESS_004"
	ErrCodeAssessmentIncomplete ErrorCode = "ASSESS_005"
)

// Portfolio module error codes.
const (
	ErrCodePortfolioEntryNotFound ErrorCode = "PORT_001"
	ErrCodeWeightSumInvalid       ErrorCode = "PORT_002"
	ErrCodePortfolioEmpty         ErrorCode = "PORT_003"
	ErrCodeBatchTooLarge          ErrorCode = "PORT_004"
)

// News module error codes.
const (
	ErrCodeScanParseFailed ErrorCode = "NEWS_001"
	ErrCodeScanFailed      ErrorCode = "NEWS_002"
)

// AI capability error codes.
const (
	ErrCodeAIUnavailable     ErrorCode = "AI_001"
	ErrCodeAICallFailed      ErrorCode = "AI_002"
	ErrCodeAIResponseInvalid ErrorCode = "AI_004"
)

// Short aliases used throughout the codebase.
const (
	CodeOK            = ErrorCode("OK")
	CodeUnknown       = ErrorCode("UNKNOWN")
	CodeInternal      = ErrCodeInternal
	CodeInvalidParam  = ErrCodeBadRequest
	CodeUnauthorized  = ErrCodeUnauthorized
	CodeForbidden     = ErrCodeForbidden
	CodeNotFound      = ErrCodeNotFound
	CodeConflict      = ErrCodeConflict
	CodeValidation    = ErrCodeValidation
	CodeSerialization = ErrCodeSerialization
	CodeDatabaseError = ErrCodeDatabaseError
	CodeCacheError    = ErrCodeCacheError

	CodeAssessmentNotFound   = ErrCodeAssessmentNotFound
	CodeScoreNotFound        = ErrCodeScoreNotFound
	CodeInvalidRating        = ErrCodeInvalidRating
	CodeAnalysisInProgress   = ErrCodeAnalysisInProgress
	CodeAssessmentIncomplete = ErrCodeAssessmentIncomplete

	CodePortfolioEntryNotFound = ErrCodePortfolioEntryNotFound
	CodeWeightSumInvalid       = ErrCodeWeightSumInvalid
	CodePortfolioEmpty         = ErrCodePortfolioEmpty
	CodeBatchTooLarge          = ErrCodeBatchTooLarge

	CodeScanParseFailed = ErrCodeScanParseFailed
	CodeScanFailed      = ErrCodeScanFailed

	CodeAIUnavailable     = ErrCodeAIUnavailable
	CodeAICallFailed      = ErrCodeAICallFailed
	CodeAIResponseInvalid = ErrCodeAIResponseInvalid
)

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeSerialization:   http.StatusInternalServerError,
	ErrCodeDatabaseError:   http.StatusInternalServerError,
	ErrCodeCacheError:      http.StatusInternalServerError,
	ErrCodeExternalService: http.StatusBadGateway,

	ErrCodeAssessmentNotFound:   http.StatusNotFound,
	ErrCodeScoreNotFound:        http.StatusNotFound,
	ErrCodeInvalidRating:        http.StatusBadRequest,
	ErrCodeAnalysisInProgress:   http.StatusConflict,
	ErrCodeAssessmentIncomplete: http.StatusBadRequest,

	ErrCodePortfolioEntryNotFound: http.StatusNotFound,
	ErrCodeWeightSumInvalid:       http.StatusBadRequest,
	ErrCodePortfolioEmpty:         http.StatusBadRequest,
	ErrCodeBatchTooLarge:          http.StatusBadRequest,

	ErrCodeScanParseFailed: http.StatusBadGateway,
	ErrCodeScanFailed:      http.StatusBadGateway,

	ErrCodeAIUnavailable:     http.StatusServiceUnavailable,
	ErrCodeAICallFailed:      http.StatusBadGateway,
	ErrCodeAIResponseInvalid: http.StatusBadGateway,
}

// HTTPStatusForCode returns the HTTP status for an ErrorCode, defaulting to
// 500 for unmapped codes.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HTTPStatus returns the HTTP status for an error's code, traversing the
// chain via GetCode.
func HTTPStatus(err error) int {
	return HTTPStatusForCode(GetCode(err))
}
