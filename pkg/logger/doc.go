// Package logger builds configured log/slog loggers with JSON or text output,
// environment-driven level, and optional context extractors that inject
// request-scoped attributes (request id, seller id) into every record.
//
// Services receive a *slog.Logger explicitly; nothing in this package mutates
// global state unless SetAsDefault is called at process start.
package logger
