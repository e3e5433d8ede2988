package middlewares

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxErrorCode = "error_code"
	ctxIdentity  = "auth.identity"
)
