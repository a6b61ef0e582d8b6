package service

import (
	"fmt"
	"time"
)

func verificationCodeEmailTemplate(name, code string, validFor time.Duration, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s verification code", appName)
	body := fmt.Sprintf(`Hi %s,

Welcome to %s! Enter this code to verify your email address:

    %s

The code expires in %s.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, name, appName, code, humanDuration(validFor), appName)

	return subject, body
}

func passwordResetEmailTemplate(name, resetURL string, validFor time.Duration, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`Hi %s,

You requested to reset your password. Choose a new one here:
%s

This link expires in %s and stops working as soon as your password changes.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, name, resetURL, humanDuration(validFor), appName)

	return subject, body
}

func welcomeEmailTemplate(name, recipesURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your email is verified and your account is active!

Share your first recipe: %s

Best,
The %s Team`, name, recipesURL, appName)

	return subject, body
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
