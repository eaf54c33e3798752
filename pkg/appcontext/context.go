package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	jobNameKeyId contextId = iota
	actionKeyId
	runIdKeyId
)

func WithRunId(ctx context.Context, runId string) context.Context {
	return context.WithValue(ctx, runIdKeyId, runId)
}

func WithJobName(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobNameKeyId, job)
}

func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, actionKeyId, action)
}

func RunIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	runId, _ := ctx.Value(runIdKeyId).(string)
	return runId
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxJobName, ok := ctx.Value(jobNameKeyId).(string); ok && ctxJobName != "" {
		result = result.WithField("job", ctxJobName)
	}

	if ctxAction, ok := ctx.Value(actionKeyId).(string); ok && ctxAction != "" {
		result = result.WithField("action", ctxAction)
	}

	if ctxRunId, ok := ctx.Value(runIdKeyId).(string); ok && ctxRunId != "" {
		result = result.WithField("run_id", ctxRunId)
	}

	return result
}
