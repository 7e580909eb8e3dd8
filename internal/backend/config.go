package backend

import (
	"errors"
	"fmt"
	"strings"

	"financeiro/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(app *config.Config) (Config, error) {
	if app == nil {
		return Config{}, errors.New("backend: nil application config")
	}
	c := Config{
		Type:         BackendType(app.DataBackend),
		DataFile:     app.DataFile,
		SQLiteDBPath: app.SQLiteDBPath,
		AMQPURL:      app.AMQPURL,
		AMQPExchange: app.AMQPExchange,
		AMQPQueue:    app.AMQPQueue,
	}
	if !c.Type.IsValid() {
		return Config{}, unknownType(c.Type)
	}
	return c, nil
}

// Validate reports every missing setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Type {
	case FileBackend:
		if c.DataFile == "" {
			errs = append(errs, errors.New("file backend needs DATA_FILE"))
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("sqlite backend needs SQLITE_DB_PATH"))
		}
	default:
		errs = append(errs, unknownType(c.Type))
	}
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP_URL is set without AMQP_EXCHANGE"))
		}
		if c.AMQPQueue == "" {
			errs = append(errs, errors.New("AMQP_URL is set without AMQP_QUEUE"))
		}
	}
	return errors.Join(errs...)
}

func unknownType(t BackendType) error {
	return fmt.Errorf("unknown backend %q (want %s)", t, strings.Join(GetBackendTypeStrings(), " or "))
}

// GetBackendTypes lists the supported backends.
func GetBackendTypes() []BackendType {
	return []BackendType{FileBackend, SQLiteBackend}
}

func GetBackendTypeStrings() []string {
	var out []string
	for _, t := range GetBackendTypes() {
		out = append(out, t.String())
	}
	return out
}
