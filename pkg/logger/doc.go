// Package logger builds *slog.Logger instances for the push engine and
// provides attribute helpers that keep key names consistent across
// dispatcher, adapters and stores.
//
// NewFromConfig is the usual entry point. It reads a Config (APP_ENV,
// LOG_LEVEL, LOG_FORMAT, LOG_TRACE_IDS) and picks JSON at info level for
// production and text at debug level everywhere else. New accepts Option
// functions directly when finer control is needed.
//
//	var cfg logger.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	log, err := logger.NewFromConfig(cfg,
//	    logger.WithContextValue("trigger_id", triggerIDKey{}),
//	)
//
// WithTraceContext adds trace_id and span_id from the active OpenTelemetry
// span, so records written inside a dispatch line up with its trace.
//
//	log.LogAttrs(ctx, slog.LevelWarn, "push send failed",
//	    logger.UserID(userID),
//	    logger.Token(device.Token),
//	    logger.Error(err),
//	)
//
// Token never writes a full device token; only the last characters are kept.
// Error and Errors return an empty attribute for nil errors, so callers do
// not need a nil check.
package logger
