// Package templates renders the transactional mail bodies.
package templates

import (
	"bytes"
	"html/template"
)

const (
	VerificationSubject    = "OTP Verification Email"
	PasswordUpdatedSubject = "Password Updated Successfully"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; text-align: center;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="font-size: 18px; font-weight: bold; margin-bottom: 20px;">OTP Verification Email</div>
    <p>Dear {{.Name}},</p>
    <p>Thank you for registering with StudyNotion. To complete your registration, please use the following OTP
      (One-Time Password) to verify your account:</p>
    <h2 style="font-weight: bold;">{{.Code}}</h2>
    <p>This OTP is valid for {{.ValidFor}}. If you did not request this verification, please disregard this email.</p>
  </div>
</body>
</html>`))

var passwordUpdatedTmpl = template.Must(template.New("password-updated").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; text-align: center;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="font-size: 18px; font-weight: bold; margin-bottom: 20px;">Password Update Confirmation</div>
    <p>Hey {{.Name}},</p>
    <p>Your password has been successfully updated for the email <strong>{{.Email}}</strong>.</p>
    <p>If you did not request this password change, please contact us immediately to secure your account.</p>
  </div>
</body>
</html>`))

// Verification renders the signup code mail.
func Verification(code, name, validFor string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Code, Name, ValidFor string
	}{code, name, validFor})
	return buf.String(), err
}

// PasswordUpdated renders the password change confirmation.
func PasswordUpdated(email, name string) (string, error) {
	var buf bytes.Buffer
	err := passwordUpdatedTmpl.Execute(&buf, struct {
		Email, Name string
	}{email, name})
	return buf.String(), err
}
