package emailsvc

import "github.com/trezcool/eleve/core"

// NewService returns the sendgrid service when an API key is configured outside debug mode,
// the console service otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.SendgridApiKey != "" && !conf.Debug {
		return NewSendgridService(conf, logger)
	}
	return NewConsoleService(conf, logger)
}
