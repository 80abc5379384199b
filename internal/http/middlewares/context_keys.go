package middlewares

const (
	CtxRequestID = "request_id"
	CtxLocale    = "locale"

	ctxUserIDKey = "auth.userID"
	ctxEmailKey  = "auth.email"
)
