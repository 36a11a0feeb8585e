package service

import (
	"errors"

	"boxoffice/api"
)

type Config struct {
	PostgresURL    string
	RedisAddr      string
	GatewayAddr    string
	HTTPAddr       string
	JaegerEndpoint string

	SMTP api.SMTPConfig
}

func (c Config) Validate() error {
	var errs []error
	if c.PostgresURL == "" {
		errs = append(errs, errors.New("postgres url is required"))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("redis address is required"))
	}
	if c.GatewayAddr == "" {
		errs = append(errs, errors.New("gateway address is required"))
	}
	if c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp host is required"))
	}
	if c.SMTP.From == "" {
		errs = append(errs, errors.New("email from address is required"))
	}

	return errors.Join(errs...)
}
