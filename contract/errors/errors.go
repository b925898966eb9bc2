package errors

// Error codes for the mediator contracts. Keep stable; used across adapters and the mediator.
const (
	ErrCodeHandlerAlreadyRegistered = "mediator.handler_already_registered"
	ErrCodeMissingHandler           = "mediator.missing_handler"
	ErrCodeHandlerTypeMismatch      = "mediator.handler_type_mismatch"
	ErrCodeInvalidMessage           = "mediator.invalid_message"
	ErrCodeExporterNotConfigured    = "mediator.exporter_not_configured"
	ErrCodeExportFailed             = "mediator.export_failed"
	ErrCodeSerializationFailed      = "mediator.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	// ErrHandlerAlreadyRegistered reports a second command or query subscription for one message type.
	ErrHandlerAlreadyRegistered = Code(ErrCodeHandlerAlreadyRegistered)
	// ErrMissingHandler reports a command or query published with nothing subscribed to its type.
	ErrMissingHandler = Code(ErrCodeMissingHandler)
	// ErrHandlerTypeMismatch reports a typed handler or Ask receiving a value of another type.
	ErrHandlerTypeMismatch = Code(ErrCodeHandlerTypeMismatch)
	// ErrInvalidMessage reports a nil sample, handler, command or query.
	ErrInvalidMessage = Code(ErrCodeInvalidMessage)
	// ErrExporterNotConfigured reports an export on a mediator built without an exporter.
	ErrExporterNotConfigured = Code(ErrCodeExporterNotConfigured)
	// ErrExportFailed reports a transport that could not deliver a record.
	ErrExportFailed = Code(ErrCodeExportFailed)
	// ErrSerializationFailed reports a record whose event cannot be encoded.
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
)
