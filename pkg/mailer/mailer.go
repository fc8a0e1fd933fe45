// Package mailer sends summary emails over SMTP. It is a collaborator
// boundary: the pipeline only records per-channel success or failure strings.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/rotisserie/eris"
)

const defaultAddr = "smtp.gmail.com:465"

// Client sends plain-text emails.
type Client interface {
	Send(to, subject, body string) error
}

// Option configures the client.
type Option func(*smtpClient)

// WithAddr overrides the default SMTP host:port.
func WithAddr(addr string) Option {
	return func(c *smtpClient) {
		c.addr = addr
	}
}

type smtpClient struct {
	from     string
	password string
	addr     string
}

// NewClient creates an SMTP mailer using implicit TLS.
func NewClient(from, password string, opts ...Option) Client {
	c := &smtpClient{
		from:     from,
		password: password,
		addr:     defaultAddr,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *smtpClient) Send(to, subject, body string) error {
	host, _, err := net.SplitHostPort(c.addr)
	if err != nil {
		return eris.Wrapf(err, "mailer: bad address %s", c.addr)
	}

	conn, err := tls.Dial("tcp", c.addr, &tls.Config{ServerName: host})
	if err != nil {
		return eris.Wrap(err, "mailer: dial")
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return eris.Wrap(err, "mailer: handshake")
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", c.from, c.password, host)); err != nil {
		return eris.Wrap(err, "mailer: auth")
	}
	if err := client.Mail(c.from); err != nil {
		return eris.Wrap(err, "mailer: mail from")
	}
	if err := client.Rcpt(to); err != nil {
		return eris.Wrap(err, "mailer: rcpt to")
	}

	w, err := client.Data()
	if err != nil {
		return eris.Wrap(err, "mailer: data")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		c.from, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return eris.Wrap(err, "mailer: write body")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "mailer: close body")
	}

	return eris.Wrap(client.Quit(), "mailer: quit")
}
