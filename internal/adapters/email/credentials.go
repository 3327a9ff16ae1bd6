package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"parky/internal/application/orchestrators"
)

// ErrNoRecipient is returned when credentials carry no email address.
var ErrNoRecipient = errors.New("credentials have no recipient")

// mdRenderer converts the credential template to HTML.
// Raw HTML in the template input is escaped because WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const credentialSubject = "Akun Parky Anda"

const reactivatedSubject = "Akun Parky Anda diaktifkan kembali"

var credentialTemplate = template.Must(template.New("credentials").Parse(`Halo **{{.Name}}**,

{{if .Reactivated}}Akun {{.RoleLabel}} Anda di Parky telah diaktifkan kembali.{{else}}Akun {{.RoleLabel}} Anda di Parky telah dibuat.{{end}}

| | |
|---|---|
| Email | {{.Email}} |
| Kata sandi | {{.Password}} |

{{if not .Reactivated}}Segera ganti kata sandi setelah login pertama.
{{end}}
Terima kasih,
Admin Parky
`))

var roleLabels = map[string]string{
	"attendant": "petugas parkir",
	"student":   "mahasiswa",
}

// CredentialNotifier renders credentials to an HTML mail and hands it to a Sender.
type CredentialNotifier struct {
	sender  Sender
	from    string
	replyTo string
}

// NewCredentialNotifier creates a notifier sending through sender.
// An empty from uses the sender's default address.
func NewCredentialNotifier(sender Sender, from, replyTo string) *CredentialNotifier {
	return &CredentialNotifier{sender: sender, from: from, replyTo: replyTo}
}

// NotifyCredentials sends one credential mail.
// PRE: c.Email is non-empty
// POST: the mail was accepted by the provider, or an error is returned
func (n *CredentialNotifier) NotifyCredentials(ctx context.Context, c orchestrators.Credentials) error {
	if c.Email == "" {
		return ErrNoRecipient
	}
	text, html, err := RenderCredentials(c)
	if err != nil {
		return err
	}
	subject := credentialSubject
	if c.Reactivated {
		subject = reactivatedSubject
	}
	_, err = n.sender.Send(ctx, Message{
		To:      c.Email,
		From:    n.from,
		ReplyTo: n.replyTo,
		Subject: subject,
		HTML:    html,
		Text:    text,
		Tags:    map[string]string{"category": "credentials", "role": c.Role},
	})
	return err
}

// RenderCredentials renders the credential mail body.
// The markdown source doubles as the plain-text part.
func RenderCredentials(c orchestrators.Credentials) (text, html string, err error) {
	label, ok := roleLabels[c.Role]
	if !ok {
		label = c.Role
	}
	var md bytes.Buffer
	err = credentialTemplate.Execute(&md, struct {
		orchestrators.Credentials
		RoleLabel string
	}{c, label})
	if err != nil {
		return "", "", fmt.Errorf("render credential template: %w", err)
	}
	var out bytes.Buffer
	if err := mdRenderer.Convert(md.Bytes(), &out); err != nil {
		return "", "", fmt.Errorf("convert credential markdown: %w", err)
	}
	return md.String(), out.String(), nil
}
