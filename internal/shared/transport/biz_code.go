package transport

// BizCode is the integer result code written to access logs and sent to
// clients in rejection messages. Values >= 500 are server faults.
type BizCode int

const (
	OK           BizCode = 0
	InvalidParam BizCode = 400
	Forbidden    BizCode = 403
	NotFound     BizCode = 404
	Conflict     BizCode = 409
	SystemError  BizCode = 500
	Unavailable  BizCode = 503
)
