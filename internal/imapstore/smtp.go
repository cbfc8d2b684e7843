package imapstore

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPOptions holds delivery settings for the digest email.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendHTML delivers a single HTML message over SMTP with STARTTLS.
func sendHTML(opts SMTPOptions, to, subject, htmlBody string) error {
	if opts.Port == 0 {
		opts.Port = 587
	}
	from := opts.From
	if from == "" {
		from = opts.Username
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer client.Close()

	if err := client.Hello(heloDomain(from)); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if err := client.StartTLS(&tls.Config{ServerName: opts.Host}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	auth := smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if _, err := w.Write([]byte(msg.String())); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}

func heloDomain(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return "localhost"
}
