package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Mailer sends the transactional mails of the auth flows. Sending happens
// synchronously inside the triggering request, so a transport failure
// surfaces as a request failure.
type Mailer interface {
	SendVerification(to, name, token string) error
	SendPasswordReset(to, name, token string) error
	SendPasswordChanged(to string) error
}

// SMTPMailer implements Mailer over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	appURL string
}

func NewSMTPMailer(host string, port int, username, password, from, appURL string) *SMTPMailer {
	dialer := gomail.NewDialer(host, port, username, password)
	return &SMTPMailer{
		dialer: dialer,
		from:   from,
		appURL: appURL,
	}
}

func (s *SMTPMailer) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}

func (s *SMTPMailer) SendVerification(to, name, token string) error {
	body, err := renderTemplate(verificationTemplate, map[string]string{
		"Name": name,
		"Link": fmt.Sprintf("%s/verify/%s", s.appURL, token),
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}
	return s.sendEmail(to, "Confirm your account", body)
}

func (s *SMTPMailer) SendPasswordReset(to, name, token string) error {
	body, err := renderTemplate(resetTemplate, map[string]string{
		"Name":  name,
		"Token": token,
	})
	if err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}
	return s.sendEmail(to, "Password reset request", body)
}

func (s *SMTPMailer) SendPasswordChanged(to string) error {
	body, err := renderTemplate(passwordChangedTemplate, nil)
	if err != nil {
		return fmt.Errorf("failed to render password changed email: %w", err)
	}
	return s.sendEmail(to, "Your password has been changed", body)
}

func renderTemplate(tpl *template.Template, data interface{}) (string, error) {
	buf := new(bytes.Buffer)
	if err := tpl.Execute(buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var verificationTemplate = template.Must(template.New("verification").Parse(`
<p>Hi {{.Name}},</p>
<p>Thanks for signing up. Please confirm your account by clicking the link below:</p>
<p><a href="{{.Link}}">Verify my account</a></p>
<p>If you did not create an account, you can ignore this message.</p>
`))

var resetTemplate = template.Must(template.New("reset").Parse(`
<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. Use the token below to set a new one:</p>
<p><strong>{{.Token}}</strong></p>
<p>If you did not request a reset, you can ignore this message.</p>
`))

var passwordChangedTemplate = template.Must(template.New("changed").Parse(`
<p>Your password has been changed successfully. You can now log in with your new password.</p>
<p>If this was not you, please contact support immediately.</p>
`))
