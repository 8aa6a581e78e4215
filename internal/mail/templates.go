package mail

import (
	"fmt"
	"html"
)

// ResetPasswordSubject is the subject line of password-reset emails.
const ResetPasswordSubject = "Password Reset Request"

// ResetPasswordBody renders the password-reset email.
func ResetPasswordBody(name, resetURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Hello %s</h2>
    <p>Please use the url below to reset your password.</p>
    <p>This reset link is valid for only 30 minutes.</p>
    <a href="%s" clicktracking="off">%s</a>
    <p>Regards...</p>
    <p>Inventory Manager Team</p>
  </div>
</body>
</html>`, html.EscapeString(name), html.EscapeString(resetURL), html.EscapeString(resetURL))
}

// ContactBody renders a contact-us message, escaping user input.
func ContactBody(name, email, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <p><strong>From:</strong> %s &lt;%s&gt;</p>
  <p style="white-space: pre-wrap;">%s</p>
</body>
</html>`, html.EscapeString(name), html.EscapeString(email), html.EscapeString(message))
}
