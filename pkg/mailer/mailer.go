package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	texttemplate "text/template"
)

// Mailer provides high-level email sending with template rendering.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a new Mailer with the given sender and renderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
	}
}

// SendParams contains parameters for sending a templated email.
type SendParams struct {
	Data     any       // Template data
	Tags     Tags      // Provider tags
	Template string    // Template name without extension (e.g., "submission")
	To       []Address // Recipients

	// Optional overrides
	Subject string  // Override template subject
	Layout  string  // Override default layout
	From    Address // Override default sender
	ReplyTo Address // Reply-to address
}

// Compose renders a template into a ready-to-send Email without sending it.
// Subject resolution: params.Subject > template metadata > config fallback.
// The subject is itself executed as a text template against params.Data.
func (m *Mailer) Compose(params SendParams) (*Email, error) {
	if len(params.To) == 0 {
		return nil, ErrNoRecipient
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}

	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		if fromMeta, ok := result.Metadata["Subject"].(string); ok && fromMeta != "" {
			subject = fromMeta
		} else {
			subject = m.config.FallbackSubject
		}
	}

	processedSubject, err := processSubject(subject, params.Data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	from := params.From
	if from.IsZero() {
		from = m.config.From()
	}

	email := &Email{
		To:      params.To,
		From:    from,
		ReplyTo: params.ReplyTo,
		Subject: processedSubject,
		HTML:    result.HTML,
		Text:    result.Text,
		Tags:    params.Tags,
	}
	if err := email.Validate(); err != nil {
		return nil, err
	}
	return email, nil
}

// Send renders a template and sends an email with a single delivery attempt.
func (m *Mailer) Send(ctx context.Context, params SendParams) (*Receipt, error) {
	email, err := m.Compose(params)
	if err != nil {
		return nil, err
	}
	return m.SendRaw(ctx, email)
}

// SendRaw sends a pre-built email without template rendering.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) (*Receipt, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	receipt, err := m.sender.Send(ctx, email)
	if err != nil {
		return nil, errors.Join(ErrSendFailed, err)
	}
	return receipt, nil
}

// processSubject executes subject as a text template. Line breaks are
// collapsed so user data cannot inject extra headers.
func processSubject(subject string, data any) (string, error) {
	if !strings.Contains(subject, "{{") {
		return subject, nil
	}

	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return strings.Join(strings.Fields(buf.String()), " "), nil
}
