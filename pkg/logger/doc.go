// Package logger builds *slog.Logger instances with functional options and a
// handler decorator that injects attributes stored in context.Context, such as
// the request id or the resolved tenant id.
//
// # Usage
//
//	log := logger.New(
//		logger.WithEnvironment("production", "tenantd"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "tenant resolved", logger.UserID(uid), logger.Source(src))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
