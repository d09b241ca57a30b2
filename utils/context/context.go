package context

import (
	"context"

	"github.com/muhammadheryan/stock-reservation/constant"
)

// GetCaller returns the service name the request was authenticated as.
func GetCaller(ctx context.Context) (string, bool) {
	v := ctx.Value(constant.CallerKey)
	if v == nil {
		return "", false
	}
	caller, ok := v.(string)
	return caller, ok && caller != ""
}

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, constant.CallerKey, caller)
}
