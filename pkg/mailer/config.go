package mailer

// Config holds mailer configuration.
// Embed this in the app config for env parsing with caarlos0/env.
type Config struct {
	FallbackSubject string `env:"MAIL_SUBJECT" envDefault:"New Audit Submission - Legalbook Assessment"`
	DefaultLayout   string `env:"MAIL_LAYOUT" envDefault:"base.html"`
	FromEmail       string `env:"MAIL_FROM" envDefault:"no-reply@radhikakabbade.com"`
	FromName        string `env:"MAIL_FROM_NAME" envDefault:"Legalbook"`
}

// From returns the configured default sender.
func (c Config) From() Address {
	return Address{Name: c.FromName, Email: c.FromEmail}
}
