package errx

// System codes shared by every package. Rule rejections are defined next to
// the code that raises them.
const (
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeTimeout       Code = "TIMEOUT"
	CodeReqParamError Code = "REQ_PARAM_ERROR"
)

var (
	ErrInternal    = NewSys(CodeInternal, "internal server error")
	ErrUnavailable = NewSys(CodeUnavailable, "service unavailable")
	ErrTimeout     = NewSys(CodeTimeout, "request timed out")
	ErrReqParamERR = NewBiz(CodeReqParamError, "malformed request")
)
