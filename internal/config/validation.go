package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator is a wrapper around go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance with the exporter endpoint rule registered
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterStructValidation(exporterEndpoint, ExporterConfig{})

	return &Validator{
		validate: v,
	}
}

// exporterEndpoint requires the endpoint of the selected exporter kind.
func exporterEndpoint(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(ExporterConfig)
	if !ok {
		return
	}

	switch cfg.Kind {
	case ExporterNATS:
		if cfg.NATS.URL == "" {
			sl.ReportError(cfg.NATS.URL, "NATS.URL", "URL", "required_for_kind", cfg.Kind)
		}
	case ExporterRabbitMQ:
		if cfg.RabbitMQ.URL == "" {
			sl.ReportError(cfg.RabbitMQ.URL, "RabbitMQ.URL", "URL", "required_for_kind", cfg.Kind)
		}
	case ExporterKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			sl.ReportError(cfg.Kafka.Brokers, "Kafka.Brokers", "Brokers", "required_for_kind", cfg.Kind)
		}
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}

	return nil
}

// formatValidationError converts validator errors into readable messages
func (v *Validator) formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}

	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
