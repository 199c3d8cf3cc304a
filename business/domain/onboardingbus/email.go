package onboardingbus

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	"strings"
	texttemplate "text/template"

	"github.com/nssmahe/portal/business/sdk/mailer"
)

const invitationHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #2563eb;">Welcome to NSS MAHE!</h2>
<p>Hello {{.Name}},</p>
<p>You have been invited to join the NSS MAHE Volunteer Web Portal for <strong>{{.Unit}}</strong>.</p>
<p>To complete your registration, please click the button below:</p>
<div style="text-align: center; margin: 30px 0;">
<a href="{{.URL}}" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; font-weight: bold;">Complete Your Profile</a>
</div>
<p>Or copy and paste this link in your browser:</p>
<p style="word-break: break-all; color: #6b7280;">{{.URL}}</p>
<p><strong>This link will expire in {{.Days}} days.</strong></p>
<p>If you have any questions, please contact your unit administrator.</p>
<hr style="margin: 30px 0; border: none; border-top: 1px solid #e5e7eb;">
<p style="color: #6b7280; font-size: 12px;">National Service Scheme<br>Manipal Academy of Higher Education</p>
</div>`

const invitationText = `Hello {{.Name}},

You have been invited to join the NSS MAHE Volunteer Web Portal for {{.Unit}}.

Complete your registration at:
{{.URL}}

This link will expire in {{.Days}} days.

National Service Scheme
Manipal Academy of Higher Education
`

const rejectionHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #dc2626;">Profile Needs Update</h2>
<p>Hello {{.Name}},</p>
<p>Your profile submission requires some updates before approval.</p>
{{if .Reason}}<p><strong>Reason:</strong> {{.Reason}}</p>{{end}}
<p>Please contact your unit administrator for more details.</p>
<hr style="margin: 30px 0; border: none; border-top: 1px solid #e5e7eb;">
<p style="color: #6b7280; font-size: 12px;">National Service Scheme<br>Manipal Academy of Higher Education</p>
</div>`

const rejectionText = `Hello {{.Name}},

Your profile submission requires some updates before approval.
{{if .Reason}}
Reason: {{.Reason}}
{{end}}
Please contact your unit administrator for more details.

National Service Scheme
Manipal Academy of Higher Education
`

var (
	invitationHTMLTmpl = htmltemplate.Must(htmltemplate.New("invitation").Parse(invitationHTML))
	invitationTextTmpl = texttemplate.Must(texttemplate.New("invitation").Parse(invitationText))
	rejectionHTMLTmpl  = htmltemplate.Must(htmltemplate.New("rejection").Parse(rejectionHTML))
	rejectionTextTmpl  = texttemplate.Must(texttemplate.New("rejection").Parse(rejectionText))
)

type invitation struct {
	Name string
	Unit string
	URL  string
	Days int
}

type rejection struct {
	Name   string
	Reason string
}

func invitationEmail(to mail.Address, data invitation) (mailer.Message, error) {
	return render(to, "Welcome to NSS MAHE - Complete Your Profile",
		func(b *bytes.Buffer) error { return invitationHTMLTmpl.Execute(b, data) },
		func(b *bytes.Buffer) error { return invitationTextTmpl.Execute(b, data) },
	)
}

func rejectionEmail(to mail.Address, data rejection) (mailer.Message, error) {
	return render(to, "NSS MAHE - Profile Update Required",
		func(b *bytes.Buffer) error { return rejectionHTMLTmpl.Execute(b, data) },
		func(b *bytes.Buffer) error { return rejectionTextTmpl.Execute(b, data) },
	)
}

func render(to mail.Address, subject string, html, text func(*bytes.Buffer) error) (mailer.Message, error) {
	var h, t bytes.Buffer

	if err := html(&h); err != nil {
		return mailer.Message{}, fmt.Errorf("html: %w", err)
	}

	if err := text(&t); err != nil {
		return mailer.Message{}, fmt.Errorf("text: %w", err)
	}

	return mailer.Message{
		To:      to.Address,
		Subject: subject,
		HTML:    h.String(),
		Text:    t.String(),
	}, nil
}

// onboardingURL builds the link an invitee follows to complete the profile.
func onboardingURL(publicURL string, token string) string {
	return strings.TrimRight(publicURL, "/") + "/onboarding/" + token
}
