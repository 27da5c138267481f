/*
Package events provides an in-process broker for logger lifecycle
events.

The supervisor publishes a RunEvent for every logger transition it
causes or observes (started, stopped, restarted, died, failed) plus
cruise-level events (mode set, cruise loaded). Subscribers receive
events on buffered channels; a slow subscriber drops events instead of
back-pressuring the supervisor, since the run journal and any attached
displays are strictly observers.

Standard subscribers are pkg/journal (persistence) and ad-hoc display
clients. Events carry their own uuid and timestamp, stamped at publish
time when the producer leaves them unset.
*/
package events
