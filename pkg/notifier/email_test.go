package notifier

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/vacancy-watch/models"
	"github.com/dtnitsch/vacancy-watch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_NotConfigured(t *testing.T) {
	rec := logger.NewRecorder()
	e := NewEmail(models.EmailConfig{User: "bot@example.com"}, rec)

	assert.False(t, e.Send(context.Background(), "asunto", "cuerpo"))
	assert.True(t, rec.Has("email not configured, skipping"))
	assert.Equal(t, "email", e.Name())
}

func closedPort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func TestEmail_DialFailureIsLogged(t *testing.T) {
	rec := logger.NewRecorder()
	e := NewEmail(models.EmailConfig{
		Host:     "127.0.0.1",
		Port:     closedPort(t),
		User:     "bot@example.com",
		Password: "pw",
		To:       "ops@example.com",
		Timeout:  time.Second,
	}, rec)

	assert.False(t, e.Notify(context.Background(), Message{Body: "cuerpo"}))
	assert.True(t, rec.Has("email send failed"))
}

func TestEmail_BadAddress(t *testing.T) {
	rec := logger.NewRecorder()
	e := NewEmail(models.EmailConfig{User: "not an address", Password: "pw", To: "ops@example.com"}, rec)

	assert.False(t, e.Send(context.Background(), "s", "b"))
	assert.True(t, rec.Has("email send failed"))
}

func TestEmail_Defaults(t *testing.T) {
	e := NewEmail(models.EmailConfig{}, logger.NewNop())
	assert.Equal(t, models.DefaultSMTPHost, e.cfg.Host)
	assert.Equal(t, models.DefaultEmailSubject, e.cfg.Subject)
	assert.Equal(t, 587, e.cfg.PortNumber())
}

// smtpServer is a single-connection SMTP server that records the session.
type smtpServer struct {
	port      string
	cert      tls.Certificate
	pool      *x509.CertPool
	startTLS  bool
	dataReply string
	done      chan struct{}

	mu      sync.Mutex
	verbs   []string
	auth    string
	from    string
	rcpts   []string
	data    string
	gotQuit bool
}

func startSMTP(t *testing.T, startTLS bool, dataReply string) *smtpServer {
	t.Helper()

	// httptest carries a certificate valid for 127.0.0.1.
	ts := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)
	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &smtpServer{
		port:      strconv.Itoa(ln.Addr().(*net.TCPAddr).Port),
		cert:      ts.TLS.Certificates[0],
		pool:      pool,
		startTLS:  startTLS,
		dataReply: dataReply,
		done:      make(chan struct{}),
	}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(s.done)
			return
		}
		s.serve(conn)
	}()
	return s
}

func (s *smtpServer) serve(conn net.Conn) {
	defer close(s.done)
	defer func() { _ = conn.Close() }()

	tp := textproto.NewConn(conn)
	reply := func(lines ...string) {
		for _, l := range lines {
			_ = tp.PrintfLine("%s", l)
		}
	}
	reply("220 fake ESMTP ready")

	secure := false
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			reply("500 empty command")
			continue
		}
		verb := strings.ToUpper(fields[0])
		s.mu.Lock()
		s.verbs = append(s.verbs, verb)
		s.mu.Unlock()

		switch verb {
		case "EHLO", "HELO":
			if !secure && s.startTLS {
				reply("250-fake greets you", "250 STARTTLS")
			} else {
				reply("250-fake greets you", "250 AUTH PLAIN LOGIN")
			}
		case "STARTTLS":
			reply("220 2.0.0 ready to start TLS")
			tlsConn := tls.Server(conn, &tls.Config{Certificates: []tls.Certificate{s.cert}})
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			tp = textproto.NewConn(tlsConn)
			secure = true
		case "AUTH":
			if len(fields) == 3 {
				raw, _ := base64.StdEncoding.DecodeString(fields[2])
				s.mu.Lock()
				s.auth = string(raw)
				s.mu.Unlock()
			}
			reply("235 2.7.0 authentication successful")
		case "MAIL":
			s.mu.Lock()
			s.from = line
			s.mu.Unlock()
			reply("250 2.1.0 ok")
		case "RCPT":
			s.mu.Lock()
			s.rcpts = append(s.rcpts, line)
			s.mu.Unlock()
			reply("250 2.1.5 ok")
		case "DATA":
			reply("354 end data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = strings.Join(lines, "\n")
			s.mu.Unlock()
			reply(s.dataReply)
		case "QUIT":
			s.mu.Lock()
			s.gotQuit = true
			s.mu.Unlock()
			reply("221 2.0.0 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

func (s *smtpServer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not end")
	}
}

func (s *smtpServer) indexOf(verb string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.verbs {
		if v == verb {
			return i
		}
	}
	return -1
}

func newTestEmail(s *smtpServer, rec logger.Logger) *Email {
	e := NewEmail(models.EmailConfig{
		Host:     "127.0.0.1",
		Port:     s.port,
		User:     "bot@example.com",
		Password: "secreto",
		To:       "ops@example.com, rrhh@example.com",
		Timeout:  5 * time.Second,
	}, rec)
	e.tlsConfig = &tls.Config{RootCAs: s.pool, ServerName: "127.0.0.1", MinVersion: tls.VersionTLS12}
	return e
}

func TestEmail_SendOverSTARTTLS(t *testing.T) {
	srv := startSMTP(t, true, "250 2.0.0 queued")
	rec := logger.NewRecorder()

	ok := newTestEmail(srv, rec).Notify(context.Background(), Message{
		Subject: "Nueva convocatoria JNE",
		Body:    "Titulo: Fiscalizador Provincial\nEnlace: https://portal.jne.gob.pe/files/a.pdf",
	})
	srv.wait(t)

	require.True(t, ok, "entries: %v", rec.Entries())
	assert.False(t, rec.Has("email send failed"))

	tlsAt, authAt := srv.indexOf("STARTTLS"), srv.indexOf("AUTH")
	require.GreaterOrEqual(t, tlsAt, 0, "STARTTLS was issued")
	assert.Less(t, tlsAt, authAt, "credentials only travel after STARTTLS")
	assert.Less(t, authAt, srv.indexOf("MAIL"))
	assert.Less(t, srv.indexOf("MAIL"), srv.indexOf("DATA"))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "\x00bot@example.com\x00secreto", srv.auth)
	assert.Contains(t, srv.from, "<bot@example.com>")
	require.Len(t, srv.rcpts, 2)
	assert.Contains(t, srv.rcpts[0], "<ops@example.com>")
	assert.Contains(t, srv.rcpts[1], "<rrhh@example.com>")
	assert.Contains(t, srv.data, "Subject: Nueva convocatoria JNE")
	assert.Contains(t, srv.data, "<ops@example.com>")
	assert.Contains(t, srv.data, "text/plain")
	assert.Contains(t, srv.data, "Fiscalizador Provincial")
	assert.True(t, srv.gotQuit, "session is closed with QUIT")
}

func TestEmail_RejectedDataStillQuits(t *testing.T) {
	srv := startSMTP(t, true, "554 5.7.1 message rejected")
	rec := logger.NewRecorder()

	ok := newTestEmail(srv, rec).Send(context.Background(), "asunto", "cuerpo")
	srv.wait(t)

	assert.False(t, ok)
	assert.True(t, rec.Has("email send failed"))
	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.True(t, srv.gotQuit, "session is closed after a rejected message")
}

func TestEmail_RequiresSTARTTLS(t *testing.T) {
	srv := startSMTP(t, false, "250 2.0.0 queued")
	rec := logger.NewRecorder()

	assert.False(t, newTestEmail(srv, rec).Send(context.Background(), "asunto", "cuerpo"))
	assert.True(t, rec.Has("email send failed"))
	assert.Equal(t, -1, srv.indexOf("AUTH"), "no credentials without TLS")
	assert.Equal(t, -1, srv.indexOf("MAIL"))
}
