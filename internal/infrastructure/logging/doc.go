// Package logging builds the zap loggers used by the server and the terminal
// client.
//
// Production output is JSON; development output is colored console text.
// The terminal client logs to a file so nothing is written over its screen.
// Every component receives a named child logger (Component), so lines carry
// their origin, e.g. "labmat.execution" or "labmat.session".
//
//	logger, _ := logging.New(logging.FromConfig(cfg.Logging))
//	log := logger.Component("execution")
//	log.Info("run succeeded", zap.Int("plots", 2))
package logging
