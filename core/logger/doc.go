// Package logger provides a structured logging facility based on Zap.
//
// The debug level selects Zap's development configuration (ISO8601 timestamps,
// stack traces on warnings); any other level uses the production configuration
// at that level. Format selects json or console encoding.
//
// # Context
//
// WithRayID attaches the request's ray ID from a Fiber context so every log
// line of a request can be correlated. WithObject scopes a logger to one
// bucket/key pair for transfer logs.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Upload failed", zap.Error(err))
package logger
