// Package mailer composes and delivers transactional email.
//
// Sending is separated from rendering so the delivery provider can be
// swapped without touching templates.
//
// # Architecture
//
//   - Sender: makes exactly one delivery attempt for a prepared Email
//   - Transport: a Sender with Name, Ping and Close, implemented by the
//     brevo, resend and smtp subpackages
//   - Renderer: turns name.md, or a name.html and name.txt pair, into HTML
//     and plain-text bodies
//   - Mailer: combines a Sender and a Renderer
//
// # Usage
//
//	sender := brevo.New(brevo.Config{APIKey: os.Getenv("BREVO_API_KEY")})
//	renderer := mailer.NewRenderer(templates.FS)
//	m := mailer.New(sender, renderer, mailer.Config{
//		FallbackSubject: "Notification",
//		DefaultLayout:   "base.html",
//		FromEmail:       "no-reply@example.com",
//	})
//
//	receipt, err := m.Send(ctx, mailer.SendParams{
//		To:       []mailer.Address{{Name: "Sales", Email: "sales@example.com"}},
//		Template: "submission",
//		Data:     submission,
//	})
//
// # Templates
//
// HTML templates may start with YAML frontmatter:
//
//	---
//	Subject: New submission from {{.Name}}
//	---
//	<p>Hello {{.Name}}</p>
//
// A Markdown template is one source for both bodies. Values interpolated
// with md are escaped on the way to goldmark and printed as is in the text:
//
//	---
//	Subject: New submission
//	---
//	Name: {{md .Name}}
//
// The subject is executed as a text template and its whitespace is
// collapsed to single spaces.
//
// # Errors
//
// Transports return a *DeliveryError whose Kind is one of FailureAuth,
// FailurePayload, FailureRateLimit, FailureTimeout or FailureUnavailable.
// Mailer.Send wraps it together with ErrSendFailed; use AsDeliveryError
// to recover it.
package mailer
