// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ResetEmailData holds data for the password-reset email.
type ResetEmailData struct {
	SiteName     string
	Name         string
	TempPassword string
	LoginURL     string
}

// BuildResetEmail creates a password-reset email with both HTML and text bodies.
// The caller sets To.
func BuildResetEmail(data ResetEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Nytt passord til %s", data.SiteName),
		TextBody: buildResetText(data),
		HTMLBody: buildResetHTML(data),
	}
}

func buildResetText(data ResetEmailData) string {
	var buf bytes.Buffer
	if data.Name != "" {
		buf.WriteString(fmt.Sprintf("Hei %s,\n\n", data.Name))
	}
	buf.WriteString(fmt.Sprintf("Ditt midlertidige passord til %s er: %s\n\n", data.SiteName, data.TempPassword))
	buf.WriteString("Logg inn her og velg et nytt passord:\n")
	buf.WriteString(data.LoginURL + "\n\n")
	buf.WriteString("Hvis du ikke ba om nytt passord, kan du se bort fra denne e-posten.\n")
	return buf.String()
}

func buildResetHTML(data ResetEmailData) string {
	tmpl := template.Must(template.New("reset").Parse(resetHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// ResetLinkEmailData holds data for the self-service reset-link email.
type ResetLinkEmailData struct {
	SiteName string
	Name     string
	ResetURL string
	Expiry   string // human-readable, e.g. "1 time"
}

// BuildResetLinkEmail creates the email sent when a user asks to reset their
// own password. The caller sets To.
func BuildResetLinkEmail(data ResetLinkEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Tilbakestill passordet ditt hos %s", data.SiteName),
		TextBody: buildResetLinkText(data),
		HTMLBody: buildResetLinkHTML(data),
	}
}

func buildResetLinkText(data ResetLinkEmailData) string {
	var buf bytes.Buffer
	if data.Name != "" {
		buf.WriteString(fmt.Sprintf("Hei %s,\n\n", data.Name))
	}
	buf.WriteString("Du har bedt om å tilbakestille passordet ditt. Følg lenken for å velge et nytt:\n")
	buf.WriteString(data.ResetURL + "\n\n")
	buf.WriteString(fmt.Sprintf("Lenken er gyldig i %s og kan bare brukes én gang.\n\n", data.Expiry))
	buf.WriteString("Hvis du ikke ba om dette, kan du se bort fra denne e-posten.\n")
	return buf.String()
}

func buildResetLinkHTML(data ResetLinkEmailData) string {
	tmpl := template.Must(template.New("resetlink").Parse(resetLinkHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const resetLinkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Tilbakestill passord</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #7c5a3c;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{if .Name}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hei {{.Name}},</p>{{end}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Du har bedt om å tilbakestille passordet ditt. Trykk på knappen for å velge et nytt.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.ResetURL}}" style="display: inline-block; padding: 14px 32px; background-color: #7c5a3c; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Velg nytt passord
                    </a>
                  </td>
                </tr>
              </table>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                Lenken er gyldig i {{.Expiry}} og kan bare brukes én gang.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                Hvis du ikke ba om dette, kan du se bort fra denne e-posten.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const resetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Nytt passord</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #7c5a3c;">{{.SiteName}}</h1>
            </td>
          </tr>

          <tr>
            <td style="padding: 32px;">
              {{if .Name}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hei {{.Name}},</p>{{end}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Ditt midlertidige passord er:
              </p>

              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 24px; font-weight: 700; letter-spacing: 2px; color: #1f2937; font-family: 'Courier New', monospace;">{{.TempPassword}}</span>
              </div>

              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #7c5a3c; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Logg inn
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                Du blir bedt om å velge et nytt passord etter innlogging.
              </p>
            </td>
          </tr>

          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                Hvis du ikke ba om nytt passord, kan du se bort fra denne e-posten.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
