package bus

// Command is a marker interface for commands (intent to change state).
// A command has exactly one handler and produces no value.
type Command interface{}

// Query is a marker interface for queries. Queries have exactly one handler,
// return a value and must not change state.
type Query interface{}

// Event is a marker interface for events (something happened).
// An event may have any number of handlers and should carry only primitive data.
type Event interface{}
