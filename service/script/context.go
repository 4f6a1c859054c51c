package script

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const scriptIdKey contextKey = "scriptId"

func NewScriptId() string {
	return uuid.NewString()
}

func WithScriptId(ctx context.Context, scriptId string) context.Context {
	return context.WithValue(ctx, scriptIdKey, scriptId)
}

func ScriptIdFromContext(ctx context.Context) string {
	v, ok := ctx.Value(scriptIdKey).(string)
	if !ok {
		return ""
	}
	return v
}
