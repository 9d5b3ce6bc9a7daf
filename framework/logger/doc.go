// Package logger builds the structured loggers used across the kernel.
//
// Loggers are plain *slog.Logger values. The handler is wrapped in a
// LogHandlerDecorator so request-scoped values held in the context (the chi
// request ID, for one) are added to every record logged with that context.
//
//	log := logger.New(logger.Options{Level: "debug"}, logger.RequestID())
//	log.InfoContext(r.Context(), "request finished", slog.Int("status", 200))
//	// {"level":"INFO","msg":"request finished","status":200,"request_id":"host/abc-000001"}
package logger
