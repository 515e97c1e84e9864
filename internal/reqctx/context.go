package reqctx

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	keyRID ctxKey = "reward_rid"
	keyUID ctxKey = "reward_uid"
)

// WithRID stores the correlation id used in reward logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUID, uid)
}

func UID(ctx context.Context) string {
	v, _ := ctx.Value(keyUID).(string)
	return v
}

// Logger decorates log with the request fields carried by ctx.
func Logger(ctx context.Context, log logrus.FieldLogger) logrus.FieldLogger {
	fields := logrus.Fields{}
	if rid := RID(ctx); rid != "" {
		fields["rid"] = rid
	}
	if uid := UID(ctx); uid != "" {
		fields["uid"] = uid
	}
	if len(fields) == 0 {
		return log
	}
	return log.WithFields(fields)
}
