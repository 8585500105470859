package common

// RequestIDHeaderName is the HTTP header carrying the per-request id.
const RequestIDHeaderName = "X-Request-Id"

// AuthorizationHeaderName carries admin bearer tokens.
const AuthorizationHeaderName = "Authorization"
