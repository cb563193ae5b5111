package auth

import (
	"context"

	"github.com/nutrihub/server/internal/userctx"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return userctx.WithUserID(ctx, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	return userctx.GetUserID(ctx)
}
