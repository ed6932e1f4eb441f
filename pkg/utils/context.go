package utils

type ContextKey string

const (
	UserKey        ContextKey = "user"
	PermissionsKey ContextKey = "permissions"
	RequestIDKey   ContextKey = "request_id"
	UserIDKey      string     = "user_id"
	ExpKey         string     = "exp"
)
