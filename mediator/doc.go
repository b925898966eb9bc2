/*
Package mediator routes commands, queries and events to the handlers subscribed for
their concrete type, all in-process and on the caller's stack.

Commands and queries have exactly one handler each; events have any number. Every
published event that reaches at least one handler is appended to the active
published-events log: the log of the innermost session bound to the context, or the
mediator's ambient log outside any session. Sessions give a unit of work its own log
so callers can inspect exactly what a command caused.
*/
package mediator
