package smtp

// Config holds SMTP relay configuration.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`

	// LocalName is sent in EHLO. Defaults to "localhost".
	LocalName string `env:"SMTP_LOCAL_NAME" envDefault:"localhost"`

	Port int `env:"SMTP_PORT" envDefault:"587"`

	// Secure forces implicit TLS. Port 465 implies it.
	Secure bool `env:"SMTP_SECURE" envDefault:"false"`

	// InsecureSkipVerify disables certificate checks. Only for local relays.
	InsecureSkipVerify bool `env:"SMTP_INSECURE_SKIP_VERIFY" envDefault:"false"`
}

func (c Config) implicitTLS() bool {
	return c.Secure || c.Port == 465
}
