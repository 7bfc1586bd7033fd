/*
Package observability turns pipeline lifecycle events into Prometheus metrics
and structured log lines.

Both helpers return domain.LifecycleHooks, so they compose with user hooks
through LifecycleHooks.Merge.
*/
package observability
