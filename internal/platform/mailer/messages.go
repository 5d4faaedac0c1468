package mailer

import "fmt"

// Subjects for the lifecycle emails.
const (
	VerificationSubject  = "Verify your Taskdeck account"
	PasswordResetSubject = "Reset your Taskdeck password"
)

// VerificationBody renders the email-ownership verification message.
func VerificationBody(code int) string {
	return fmt.Sprintf(
		"Welcome to Taskdeck!\n\n"+
			"Your verification code is %06d. It expires in one hour.\n\n"+
			"If you did not create this account, you can ignore this message.\n",
		code,
	)
}

// PasswordResetBody renders the password-reset message carrying the
// one-time credential.
func PasswordResetBody(token string) string {
	return fmt.Sprintf(
		"A password reset was requested for your Taskdeck account.\n\n"+
			"Your reset token is:\n\n    %s\n\n"+
			"It expires in one hour. If you did not request a reset, you can\n"+
			"ignore this message and your password will stay unchanged.\n",
		token,
	)
}
