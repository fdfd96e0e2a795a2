// Package relay turns an assessment form submission into an email
// notification for the sales inbox.
//
// Handle is the whole contract: it validates the required fields (name,
// email, phone), renders HTML and plain-text bodies from embedded
// templates, and makes exactly one delivery attempt through a
// mailer.Sender, bounded by a timeout. It never retries.
//
// Failures come back as *Error, classified into a stable taxonomy:
//
//	KindValidation  400  missing required field, nothing is sent
//	KindAuth        401  provider rejected the credentials
//	KindPayload     400  provider rejected the message
//	KindRateLimit   429  provider throttled the request
//	KindTimeout     504  dispatch exceeded the timeout
//	KindTransport   500  anything else, including unreachable providers
//	KindInternal    500  rendering failed
//
// Error.Message is safe to show to clients. Error.Details carries the
// provider name, status and its message with markup stripped and every
// configured secret redacted.
//
// Usage:
//
//	r := relay.New(brevo.New(brevoCfg), relay.Config{
//		From: mailer.Address{Name: "Legalbook", Email: "no-reply@example.com"},
//		To:   []mailer.Address{{Name: "Sales", Email: "sales@example.com"}},
//	}, relay.WithLogger(log), relay.WithRedactor(redactor))
//
//	res, err := r.Handle(ctx, submission)
package relay
