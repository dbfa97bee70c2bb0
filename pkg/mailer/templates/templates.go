package templates

import (
	"bytes"
	"errors"
	htmpl "html/template"
	texttpl "text/template"
)

// Template names accepted in EmailJob.Template.
const (
	ResetPassword = "reset_password"
	Welcome       = "welcome"
)

const resetSubject = "Reset your VideoTube password"
const welcomeSubject = "Welcome to VideoTube"

const resetText = `Hi {{.Name}},

We received a request to reset the password for your VideoTube account.
Open the link below to choose a new password. The link is valid for
{{.ExpiresInText}} and can be used once.

{{.ResetURL}}

If you did not request a reset, you can ignore this email; your password
will not change.
`

const resetHTML = `<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for your VideoTube account.
Click the button below to choose a new password. The link is valid for
<strong>{{.ExpiresInText}}</strong> and can be used once.</p>
<p><a href="{{.ResetURL}}">Reset password</a></p>
<p>If you did not request a reset, you can ignore this email; your password
will not change.</p>
`

const welcomeText = `Hi {{.Name}},

Your VideoTube account @{{.Username}} is ready. Happy watching!
`

const welcomeHTML = `<p>Hi {{.Name}},</p>
<p>Your VideoTube account <strong>@{{.Username}}</strong> is ready. Happy watching!</p>
`

var (
	textTemplates = texttpl.Must(
		texttpl.Must(texttpl.New(ResetPassword).Parse(resetText)).
			New(Welcome).Parse(welcomeText))
	htmlTemplates = htmpl.Must(
		htmpl.Must(htmpl.New(ResetPassword).Parse(resetHTML)).
			New(Welcome).Parse(welcomeHTML))
)

// Render returns subject, text body, and HTML body for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case ResetPassword:
		subject = resetSubject
	case Welcome:
		subject = welcomeSubject
	default:
		return "", "", "", errors.New("unknown email template: " + name)
	}

	var tbuf, hbuf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&tbuf, name, data); err != nil {
		return "", "", "", err
	}
	if err := htmlTemplates.ExecuteTemplate(&hbuf, name, data); err != nil {
		return "", "", "", err
	}
	return subject, tbuf.String(), hbuf.String(), nil
}
