/*
Package log provides structured logging for deckhand built on zerolog.

A single global logger is initialized once at startup via Init and
consumed through child-logger helpers that attach standard fields:

	log.Init(log.Config{Level: log.InfoLevel})
	logger := log.WithComponent("supervisor")
	logger.Info().Str("logger", "gyro").Msg("started")

The "logger" field always refers to a supervised data pipeline by name,
never to a logging facility.
*/
package log
