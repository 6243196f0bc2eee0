package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
)

var (
	//go:embed templates/*.html
	emailTemplates embed.FS

	verificationTemplate  = template.Must(template.New("verification.html").ParseFS(emailTemplates, "templates/verification.html"))
	passwordResetTemplate = template.Must(template.New("password_reset.html").ParseFS(emailTemplates, "templates/password_reset.html"))
)

// Config holds SMTP transport settings. Port 465 uses implicit TLS,
// anything else goes through smtp.SendMail.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string

	// AppURL is the public base URL used to build verification links.
	AppURL string
	// AppScheme is the mobile deep link scheme for reset links.
	AppScheme string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.AppScheme == "" {
		cfg.AppScheme = "footmatch"
	}
	return &Client{cfg: cfg}
}

func (c *Client) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	verificationURL := fmt.Sprintf("%s/auth/verify-email?token=%s", c.cfg.AppURL, token)

	body := bytes.Buffer{}
	data := struct {
		Name            string
		Token           string
		VerificationURL string
	}{Name: name, Token: token, VerificationURL: verificationURL}

	if err := verificationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render verification template: %w", err)
	}

	return c.send(ctx, email, "Confirm your email - FootMatch", body.String())
}

func (c *Client) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	resetURL := fmt.Sprintf("%s://reset-password?token=%s", c.cfg.AppScheme, token)

	body := bytes.Buffer{}
	data := struct {
		Name     string
		Token    string
		ResetURL string
	}{Name: name, Token: token, ResetURL: resetURL}

	if err := passwordResetTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render password reset template: %w", err)
	}

	return c.send(ctx, email, "Password Reset - FootMatch", body.String())
}

func (c *Client) send(ctx context.Context, toEmail, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	from := c.cfg.FromAddress
	if from == "" {
		from = c.cfg.Username
	}
	if from == "" {
		return fmt.Errorf("smtp from address is not configured")
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)

	msg := buildHTMLMessage(from, toEmail, subject, htmlBody)

	if c.cfg.Username == "" && c.cfg.Password == "" {
		return smtp.SendMail(addr, nil, from, []string{toEmail}, []byte(msg))
	}

	if c.cfg.Port == 465 {
		return c.sendSMTPTLS(addr, auth, from, toEmail, msg)
	}

	return smtp.SendMail(addr, auth, from, []string{toEmail}, []byte(msg))
}

// TestConnection dials the configured server, negotiates TLS, and
// authenticates when credentials are set. No message is sent.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	var client *smtp.Client
	if c.cfg.Port == 465 {
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.cfg.Host})
		if err != nil {
			return err
		}
		var nerr error
		client, nerr = smtp.NewClient(conn, c.cfg.Host)
		if nerr != nil {
			conn.Close()
			return nerr
		}
	} else {
		var derr error
		client, derr = smtp.Dial(addr)
		if derr != nil {
			return derr
		}
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: c.cfg.Host}); err != nil {
				client.Close()
				return err
			}
		}
	}
	defer client.Close()

	if c.cfg.Username != "" && c.cfg.Password != "" {
		auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	return client.Quit()
}

func (c *Client) sendSMTPTLS(addr string, auth smtp.Auth, from, toEmail, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}

	wc, err := client.Data()
	if err != nil {
		return err
	}
	_, err = wc.Write([]byte(msg))
	if err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func buildHTMLMessage(from, to, subject, htmlBody string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"utf-8\"\r\n\r\n%s", from, to, subject, htmlBody)
}
