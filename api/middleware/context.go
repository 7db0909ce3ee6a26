package middleware

import "context"

// Identity values land on the request context during auth so downstream
// handlers can attribute writes to the operator.

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxFirstName contextKey = "first_name"
	ctxRole      contextKey = "actor_role"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func setContextString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func FirstNameFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxFirstName)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return setContextString(ctx, ctxUserID, userID)
}

func WithFirstName(ctx context.Context, firstName string) context.Context {
	return setContextString(ctx, ctxFirstName, firstName)
}

func WithRole(ctx context.Context, role string) context.Context {
	return setContextString(ctx, ctxRole, role)
}
