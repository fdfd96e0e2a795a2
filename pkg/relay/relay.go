package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/legalbook/relay/pkg/logger"
	"github.com/legalbook/relay/pkg/mailer"
	"github.com/legalbook/relay/pkg/sanitizer"
)

// Dispatch timeout bounds.
const (
	DefaultTimeout = 10 * time.Second
	MinTimeout     = time.Second
	MaxTimeout     = 30 * time.Second

	// maxDetailRunes caps provider text in error details.
	maxDetailRunes = 300
)

// ClampTimeout returns d bounded to [MinTimeout, MaxTimeout].
// Zero or negative means DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

// Recorder observes relay attempts.
type Recorder interface {
	ObserveAttempt(transport, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, string, time.Duration) {}

// Config holds the fixed envelope of every notification.
type Config struct {
	From    mailer.Address
	To      []mailer.Address
	Subject string
	Timeout time.Duration
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the logger. Attempts are logged at info, failures at warn.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Relay) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithRedactor sets the redactor applied to provider text in error details.
func WithRedactor(red *logger.Redactor) Option {
	return func(r *Relay) {
		r.redactor = red
	}
}

// WithClock overrides the clock used to stamp submissions.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// Result describes an accepted notification.
type Result struct {
	MessageID string
	Provider  string
}

// Relay validates a Submission, renders it and makes exactly one delivery
// attempt through its sender.
type Relay struct {
	sender   mailer.Sender
	mailer   *mailer.Mailer
	logger   *slog.Logger
	recorder Recorder
	redactor *logger.Redactor
	now      func() time.Time
	provider string
	cfg      Config
}

// New creates a Relay. Zero Config fields fall back to defaults: the
// subject to DefaultSubject and the timeout to DefaultTimeout.
func New(sender mailer.Sender, cfg Config, opts ...Option) *Relay {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	cfg.Timeout = ClampTimeout(cfg.Timeout)

	provider := "custom"
	if named, ok := sender.(interface{ Name() string }); ok {
		provider = named.Name()
	}

	r := &Relay{
		sender:   sender,
		logger:   logger.NewNope(),
		recorder: nopRecorder{},
		now:      time.Now,
		provider: provider,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.mailer = mailer.New(sender, defaultRenderer, mailer.Config{
		FallbackSubject: cfg.Subject,
		DefaultLayout:   DefaultLayout,
		FromEmail:       cfg.From.Email,
		FromName:        cfg.From.Name,
	})
	return r
}

// Timeout returns the effective dispatch timeout.
func (r *Relay) Timeout() time.Duration { return r.cfg.Timeout }

// Provider names the transport behind the relay.
func (r *Relay) Provider() string { return r.provider }

// Handle relays one submission. Failures are returned as *Error.
// It returns within the configured timeout even if the sender ignores ctx.
func (r *Relay) Handle(ctx context.Context, sub Submission) (*Result, error) {
	sub = stamp(sub.Normalize(), r.now)

	if err := sub.Validate(); err != nil {
		re, _ := AsError(err)
		r.observe(ctx, KindValidation.String(), 0, slog.Any("missing", re.Missing))
		return nil, err
	}

	email, err := r.mailer.Compose(mailer.SendParams{
		To:       r.cfg.To,
		Template: submissionTemplate,
		Subject:  r.cfg.Subject,
		Data:     newView(sub, r.cfg.Subject),
		Tags:     mailer.SimpleTags("assessment"),
	})
	if err != nil {
		rerr := &Error{Kind: KindInternal, Status: KindInternal.Status(), Message: MsgInternal, Err: err}
		r.observe(ctx, KindInternal.String(), 0, slog.String("error", r.redact(err.Error())))
		return nil, rerr
	}

	start := time.Now()
	receipt, err := r.dispatch(ctx, email)
	elapsed := time.Since(start)
	if err != nil {
		rerr := r.classify(err)
		r.observe(ctx, rerr.Kind.String(), elapsed,
			slog.Int("status", rerr.Status),
			slog.String("error", r.redact(err.Error())),
		)
		return nil, rerr
	}

	res := &Result{Provider: r.provider}
	if receipt != nil {
		res.MessageID = receipt.MessageID
		if receipt.Provider != "" {
			res.Provider = receipt.Provider
		}
	}
	r.observe(ctx, "success", elapsed,
		slog.String("message_id", res.MessageID),
		slog.Int("sections", len(sub.SectionScores)),
	)
	return res, nil
}

type dispatchResult struct {
	receipt *mailer.Receipt
	err     error
}

// dispatch makes one send attempt bounded by the relay timeout.
// A panic in the sender becomes an error.
func (r *Relay) dispatch(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	done := make(chan dispatchResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- dispatchResult{err: fmt.Errorf("relay: sender panicked: %v", p)}
			}
		}()
		receipt, err := r.mailer.SendRaw(ctx, email)
		done <- dispatchResult{receipt: receipt, err: err}
	}()

	select {
	case res := <-done:
		return res.receipt, res.err
	case <-ctx.Done():
		return nil, mailer.TransportFailure(r.provider, ctx.Err())
	}
}

// classify maps a dispatch error onto the client taxonomy.
func (r *Relay) classify(err error) *Error {
	de, ok := mailer.AsDeliveryError(err)
	if !ok {
		if mailer.IsTimeout(err) {
			de = &mailer.DeliveryError{Provider: r.provider, Kind: mailer.FailureTimeout, Err: err}
		} else {
			de = &mailer.DeliveryError{Provider: r.provider, Kind: mailer.FailureUnavailable, Err: err}
		}
	}

	var kind Kind
	msg := MsgSendFailed
	switch de.Kind {
	case mailer.FailureAuth:
		kind, msg = KindAuth, MsgInvalidAPIKey
		if de.Provider == "smtp" {
			msg = MsgInvalidSMTPCreds
		}
	case mailer.FailurePayload:
		kind, msg = KindPayload, MsgInvalidPayload
	case mailer.FailureRateLimit:
		kind, msg = KindRateLimit, MsgRateLimited
	case mailer.FailureTimeout:
		kind, msg = KindTimeout, MsgTimeout
	default:
		kind = KindTransport
	}

	detail := de.Message
	if detail == "" && de.Err != nil && !errors.Is(de.Err, context.DeadlineExceeded) {
		detail = de.Err.Error()
	}

	return &Error{
		Kind:    kind,
		Status:  kind.Status(),
		Message: msg,
		Err:     err,
		Details: ProviderDetails{
			Provider: de.Provider,
			Status:   de.Status,
			Message:  r.redact(sanitizer.CleanText(detail, maxDetailRunes)),
		},
	}
}

func (r *Relay) redact(s string) string {
	return r.redactor.Redact(s)
}

func (r *Relay) observe(ctx context.Context, outcome string, d time.Duration, attrs ...slog.Attr) {
	r.recorder.ObserveAttempt(r.provider, outcome, d)

	level := slog.LevelInfo
	if outcome != "success" {
		level = slog.LevelWarn
	}
	base := []slog.Attr{
		slog.String("outcome", outcome),
		slog.String("provider", r.provider),
		slog.Duration("duration", d),
	}
	r.logger.LogAttrs(ctx, level, "relay attempt", append(base, attrs...)...)
}
