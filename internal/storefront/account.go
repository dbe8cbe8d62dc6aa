package storefront

import (
	"context"
	"strings"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/validation"
)

type AuthResult struct {
	Result
	User *models.User `json:"user,omitempty"`
}

func (s *Storefront) Login(ctx context.Context, form *validation.LoginForm) AuthResult {
	if errs := s.validator.Login(form); !errs.Empty() {
		return AuthResult{Result: invalid(errs)}
	}
	user, err := s.auth.Login(ctx, strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		// A 401 here means bad credentials, not an expired session.
		st := s.fail(err, "Invalid email or password", "Login failed")
		st.Unauthorized = false
		st.Error = apiclient.Message(err, "Invalid email or password")
		return AuthResult{Result: Result{Status: st}}
	}
	s.counter.Refresh(ctx)
	return AuthResult{User: user}
}

func (s *Storefront) Register(ctx context.Context, form *validation.RegisterForm) AuthResult {
	if errs := s.validator.Register(form); !errs.Empty() {
		return AuthResult{Result: invalid(errs)}
	}
	user, err := s.auth.Register(ctx, &service.RegisterRequest{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})
	if err != nil {
		return AuthResult{Result: Result{Status: s.fail(err, "Registration failed", "Registration failed")}}
	}
	s.counter.Refresh(ctx)
	return AuthResult{User: user}
}

func (s *Storefront) Logout(ctx context.Context) Result {
	s.auth.Logout(ctx)
	s.counter.Reset()
	return Result{Message: "Logged out"}
}

// ForgotPassword starts account recovery by email.
func (s *Storefront) ForgotPassword(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid(validation.FieldErrors{"email": "This field is required"})
	}
	msg, err := s.auth.ForgotPassword(ctx, email)
	if err != nil {
		return Result{Status: s.fail(err, "Failed to send reset instructions", "Forgot password failed")}
	}
	if msg == "" {
		msg = "If an account exists for that email, reset instructions have been sent"
	}
	return Result{Message: msg}
}

// ResetPassword sets a new password directly for an email address.
func (s *Storefront) ResetPassword(ctx context.Context, form *validation.ResetPasswordForm) Result {
	if errs := s.validator.ResetPassword(form); !errs.Empty() {
		return invalid(errs)
	}
	msg, err := s.auth.DirectReset(ctx, strings.TrimSpace(form.Email), form.NewPassword)
	if err != nil {
		return Result{Status: s.fail(err, "Failed to reset password", "Password reset failed")}
	}
	if msg == "" {
		msg = "Password reset successfully"
	}
	return Result{Message: msg}
}

// Contact validates and sends the contact form.
func (s *Storefront) Contact(ctx context.Context, form *validation.ContactForm) Result {
	if errs := s.validator.Contact(form); !errs.Empty() {
		return invalid(errs)
	}
	msg, err := s.services.Contact.Send(ctx, &service.ContactRequest{
		Name:    strings.TrimSpace(form.Name),
		Email:   strings.TrimSpace(form.Email),
		Subject: strings.TrimSpace(form.Subject),
		Message: strings.TrimSpace(form.Message),
	})
	if err != nil {
		return Result{Status: s.fail(err, "Failed to send message. Please try again.", "Contact form failed")}
	}
	if msg == "" {
		msg = "Thank you for your message. We will get back to you soon."
	}
	return Result{Message: msg}
}
