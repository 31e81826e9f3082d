// Package logging builds the process logger and carries correlation ids.
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
//	log := logging.WithTrace(ctx, logging.WithRunID(ctx, slog.Default()))
//	log.Info("collect run started")
package logging
