/*
Package journal persists logger run history to BoltDB.

Every RunEvent the supervisor publishes (starts, deaths, restarts,
permanent failures, mode switches) is appended under a
timestamp-ordered key, giving a post-cruise audit trail of what ran
when and why it stopped. The journal records history only — desired
configuration is deliberately not persisted, so a restarted supervisor
always comes up idle until told what to run.

Attach to a broker with Follow; writes happen on a single background
goroutine so journaling never blocks the supervisor.
*/
package journal
