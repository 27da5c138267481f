/*
Package command is deckhand's external command surface.

Each command line maps 1:1 onto a supervisor or cruise operation:

	load_cruise nbp1406.yaml        → cruise.Load + default mode
	set_mode underway               → cruise.ResolveMode + SetConfigs
	set_logger_config_name gyro g2  → config lookup + SetConfig
	status                          → CheckLoggers, printed as JSON
	quit                            → Quit

The dispatcher owns the currently loaded cruise document and mode;
everything it resolves happens before any supervisor mutation, so a
malformed argument or an unknown mode is a synchronous error that
leaves running loggers untouched.

Transports are out of scope by design: the stdin RunLoop ships here,
and a socket or message-channel transport just feeds lines to
Dispatcher.Execute.
*/
package command
