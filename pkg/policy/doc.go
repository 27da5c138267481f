/*
Package policy decides the fate of unexpectedly dead loggers.

The supervisor detects death only through liveness polls; when it finds
a desired-but-dead logger during a managed status scan, it asks the
policy whether to restart or give up. Two policies ship:

  - FixedAttempt: N launches per config, then permanent failure.
  - UptimeAware: unlimited restarts as long as runs stay up MinUptime;
    N consecutive short-lived runs mean the logger is flapping and gets
    marked failed.

Either way, Failed is sticky. Time never clears it; only an explicit
set_config with a (possibly identical) config does, which keeps a
broken instrument from silently chewing restart cycles all cruise.
*/
package policy
