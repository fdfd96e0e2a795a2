package smtp

import (
	"bufio"
	"context"
	"encoding/base64"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/pkg/mailer"
)

// fakeServer is a minimal SMTP relay on 127.0.0.1.
type fakeServer struct {
	ln net.Listener

	// replies overrides the reply for a verb, e.g. "RCPT": "550 5.1.1 no such user".
	replies map[string]string
	// user and pass enable AUTH PLAIN when user is set.
	user, pass string
	// stall delays the greeting.
	stall time.Duration

	mu       sync.Mutex
	from     string
	rcpts    []string
	data     string
	sessions int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeServer{ln: ln, replies: map[string]string{}}
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeServer) start() {
	go func() {
		for {
			conn, err := f.ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
}

func (f *fakeServer) config() Config {
	addr := f.ln.Addr().(*net.TCPAddr)
	return Config{Host: "127.0.0.1", Port: addr.Port, Username: f.user, Password: f.pass}
}

func (f *fakeServer) reply(verb, def string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.replies[verb]; ok {
		return r
	}
	return def
}

func (f *fakeServer) serve(conn net.Conn) {
	defer conn.Close()

	f.mu.Lock()
	f.sessions++
	f.mu.Unlock()

	if f.stall > 0 {
		time.Sleep(f.stall)
	}

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 127.0.0.1 ESMTP fake")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO":
			if f.user != "" {
				_ = tp.PrintfLine("250-127.0.0.1")
				_ = tp.PrintfLine("250 AUTH PLAIN")
			} else {
				_ = tp.PrintfLine("250 127.0.0.1")
			}
		case "AUTH":
			parts := strings.Fields(line)
			raw, _ := base64.StdEncoding.DecodeString(parts[len(parts)-1])
			creds := strings.Split(string(raw), "\x00")
			if len(creds) == 3 && creds[1] == f.user && creds[2] == f.pass {
				_ = tp.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
			}
		case "MAIL":
			f.mu.Lock()
			f.from = line
			f.mu.Unlock()
			_ = tp.PrintfLine("%s", f.reply("MAIL", "250 2.1.0 Ok"))
		case "RCPT":
			f.mu.Lock()
			f.rcpts = append(f.rcpts, line)
			f.mu.Unlock()
			_ = tp.PrintfLine("%s", f.reply("RCPT", "250 2.1.5 Ok"))
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = string(body)
			f.mu.Unlock()
			_ = tp.PrintfLine("%s", f.reply("DATA", "250 2.0.0 Ok: queued"))
		case "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("250 Ok")
		}
	}
}

func testEmail() *mailer.Email {
	return &mailer.Email{
		From:    mailer.Address{Name: "Legalbook", Email: "no-reply@radhikakabbade.com"},
		To:      []mailer.Address{{Name: "Legalbook Sales Team", Email: "sales@legalbook.io"}},
		ReplyTo: mailer.Address{Name: "Jane Doe", Email: "jane@example.com"},
		Subject: "New Audit Submission - Legalbook Assessment",
		HTML:    "<p>Total Score: 24</p>",
		Text:    "Total Score: 24",
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.user, srv.pass = "relay", "s3cret-pass"
	srv.start()

	s := New(srv.config())
	receipt, err := s.Send(context.Background(), testEmail())
	require.NoError(t, err)
	require.Equal(t, "smtp", receipt.Provider)
	require.True(t, strings.HasSuffix(receipt.MessageID, "@radhikakabbade.com>"))

	srv.mu.Lock()
	defer srv.mu.Unlock()

	require.Contains(t, srv.from, "<no-reply@radhikakabbade.com>")
	require.Len(t, srv.rcpts, 1)
	require.Contains(t, srv.rcpts[0], "<sales@legalbook.io>")

	require.Contains(t, srv.data, "Subject: New Audit Submission - Legalbook Assessment")
	require.Contains(t, srv.data, `From: "Legalbook" <no-reply@radhikakabbade.com>`)
	require.Contains(t, srv.data, "Reply-To:")
	require.Contains(t, srv.data, "Message-ID: "+receipt.MessageID)
	require.Contains(t, srv.data, "multipart/alternative")
	require.Contains(t, srv.data, "text/plain")
	require.Contains(t, srv.data, "text/html")
}

func TestSender_Send_ReplyCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		verb  string
		reply string
		want  mailer.FailureKind
	}{
		{"mailbox unavailable", "RCPT", "550 5.1.1 User unknown", mailer.FailurePayload},
		{"greylisted", "RCPT", "451 4.7.1 Try again later", mailer.FailureRateLimit},
		{"service closing", "MAIL", "421 4.7.0 Too many connections", mailer.FailureRateLimit},
		{"auth required", "MAIL", "530 5.7.0 Authentication required", mailer.FailureAuth},
		{"message rejected", "DATA", "554 5.7.1 Rejected", mailer.FailurePayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newFakeServer(t)
			srv.replies[tt.verb] = tt.reply
			srv.start()

			_, err := New(srv.config()).Send(context.Background(), testEmail())

			de, ok := mailer.AsDeliveryError(err)
			require.True(t, ok, "got %v", err)
			require.Equal(t, tt.want, de.Kind)
			code, _ := strconv.Atoi(tt.reply[:3])
			require.Equal(t, code, de.Status)
			require.NotEmpty(t, de.Message)
		})
	}
}

func TestSender_Send_BadCredentials(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.user, srv.pass = "relay", "right"
	srv.start()

	cfg := srv.config()
	cfg.Password = "wrong-password-value"

	_, err := New(cfg).Send(context.Background(), testEmail())

	de, ok := mailer.AsDeliveryError(err)
	require.True(t, ok)
	require.Equal(t, mailer.FailureAuth, de.Kind)
	require.Equal(t, 535, de.Status)
	require.NotContains(t, err.Error(), "wrong-password-value")
}

func TestSender_Send_Timeout(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.stall = time.Second
	srv.start()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(srv.config()).Send(ctx, testEmail())

	de, ok := mailer.AsDeliveryError(err)
	require.True(t, ok)
	require.Equal(t, mailer.FailureTimeout, de.Kind)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestSender_Send_Unreachable(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = New(Config{Host: "127.0.0.1", Port: port}).Send(context.Background(), testEmail())

	de, ok := mailer.AsDeliveryError(err)
	require.True(t, ok)
	require.Equal(t, mailer.FailureUnavailable, de.Kind)
}

func TestSender_Send_NotConfigured(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	_, err := s.Send(context.Background(), testEmail())
	require.ErrorIs(t, err, mailer.ErrNotConfigured)
	require.ErrorIs(t, s.Ping(context.Background()), mailer.ErrNotConfigured)
}

func TestSender_Ping(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.start()

	s := New(srv.config())
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	require.Equal(t, "smtp", s.Name())

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Equal(t, 1, srv.sessions)
	require.Empty(t, srv.data)
}

func TestKindFromReplyCode(t *testing.T) {
	t.Parallel()

	tests := map[int]mailer.FailureKind{
		530: mailer.FailureAuth,
		534: mailer.FailureAuth,
		535: mailer.FailureAuth,
		421: mailer.FailureRateLimit,
		450: mailer.FailureRateLimit,
		451: mailer.FailureRateLimit,
		500: mailer.FailurePayload,
		504: mailer.FailurePayload,
		550: mailer.FailurePayload,
		554: mailer.FailurePayload,
		452: mailer.FailureUnavailable,
		505: mailer.FailureUnavailable,
		0:   mailer.FailureUnavailable,
	}
	for code, want := range tests {
		require.Equal(t, want, KindFromReplyCode(code), "code %d", code)
	}
}

func TestBuildMessage_HTMLOnly(t *testing.T) {
	t.Parallel()

	email := testEmail()
	email.Text = ""
	email.ReplyTo = mailer.Address{}

	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	_, err := buildMessage(email, "<id@example.com>").WriteTo(w)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	out := sb.String()
	require.Contains(t, out, "text/html")
	require.NotContains(t, out, "multipart/alternative")
	require.NotContains(t, out, "Reply-To:")
}
