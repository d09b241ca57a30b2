package constant

type contextKey string

// CallerKey holds the authenticated service name (JWT subject) on the request context.
const CallerKey contextKey = "caller"
