package brevo

// DefaultEndpoint is the Brevo transactional email API.
const DefaultEndpoint = "https://api.brevo.com/v3/smtp/email"

// Config holds Brevo email provider configuration.
type Config struct {
	APIKey   string `env:"BREVO_API_KEY"`
	Endpoint string `env:"BREVO_ENDPOINT" envDefault:"https://api.brevo.com/v3/smtp/email"`
}
