package storefront

import (
	"context"
	"strings"

	"marketplace-storefront/internal/apiclient"
	"marketplace-storefront/internal/models"
	"marketplace-storefront/internal/service"
	"marketplace-storefront/internal/validation"

	"go.uber.org/zap"
)

type ProfileView struct {
	User        *models.User                   `json:"user,omitempty"`
	Preferences models.NotificationPreferences `json:"preferences"`
	Status
}

// Profile returns the signed-in user, refreshed from the server when
// possible, and the device-local notification preferences.
func (s *Storefront) Profile(ctx context.Context) ProfileView {
	if s.user() == nil {
		return ProfileView{Status: Status{Unauthorized: true}}
	}

	view := ProfileView{User: s.user(), Preferences: s.preferences(ctx)}
	user, err := s.auth.RefreshUser(ctx)
	if err != nil {
		st := s.fail(err, "Failed to load profile", "Failed to refresh profile")
		if st.Unauthorized {
			return ProfileView{Status: st}
		}
		view.Status = st
		return view
	}
	view.User = user
	return view
}

func (s *Storefront) preferences(ctx context.Context) models.NotificationPreferences {
	prefs, err := s.prefs.LoadPreferences(ctx)
	if err != nil {
		s.logger.Warn("Failed to load preferences", zap.Error(err))
		return models.DefaultNotificationPreferences()
	}
	return prefs
}

type ProfileResult struct {
	Result
	User *models.User `json:"user,omitempty"`
}

func (s *Storefront) UpdateProfile(ctx context.Context, form *validation.ProfileForm) ProfileResult {
	if errs := s.validator.Profile(form); !errs.Empty() {
		return ProfileResult{Result: invalid(errs)}
	}
	user, err := s.services.Users.UpdateProfile(ctx, &service.ProfileRequest{
		Name:  strings.TrimSpace(form.Name),
		Phone: strings.TrimSpace(form.Phone),
		Bio:   strings.TrimSpace(form.Bio),
	})
	if err != nil {
		return ProfileResult{Result: Result{Status: s.fail(err, "Failed to update profile", "Failed to update profile")}}
	}
	s.auth.UpdateUser(ctx, user)
	return ProfileResult{Result: Result{Message: "Profile updated"}, User: user}
}

func (s *Storefront) UploadAvatar(ctx context.Context, avatar apiclient.File) ProfileResult {
	user, err := s.services.Users.UploadAvatar(ctx, avatar)
	if err != nil {
		return ProfileResult{Result: Result{Status: s.fail(err, "Failed to upload avatar", "Failed to upload avatar")}}
	}
	s.auth.UpdateUser(ctx, user)
	return ProfileResult{Result: Result{Message: "Avatar updated"}, User: user}
}

func (s *Storefront) ChangePassword(ctx context.Context, form *validation.ChangePasswordForm) Result {
	if errs := s.validator.ChangePassword(form); !errs.Empty() {
		return invalid(errs)
	}
	if err := s.auth.ChangePassword(ctx, form.CurrentPassword, form.NewPassword); err != nil {
		return Result{Status: s.fail(err, "Failed to change password", "Failed to change password")}
	}
	return Result{Message: "Password changed successfully"}
}

// SavePreferences stores notification preferences on this device only.
func (s *Storefront) SavePreferences(ctx context.Context, prefs models.NotificationPreferences) Result {
	if err := s.prefs.SavePreferences(ctx, prefs); err != nil {
		s.logger.Error("Failed to save preferences", zap.Error(err))
		return Result{Status: Status{Error: "Failed to save preferences"}}
	}
	return Result{Message: "Preferences saved"}
}

// DeleteAccount deletes the signed-in user and then logs out.
func (s *Storefront) DeleteAccount(ctx context.Context) Result {
	user := s.user()
	if user == nil {
		return Result{Status: Status{Unauthorized: true}}
	}
	if err := s.services.Users.Delete(ctx, user.ID); err != nil {
		return Result{Status: s.fail(err, "Failed to delete account", "Failed to delete account")}
	}
	s.logger.Info("Account deleted", zap.String("user_id", user.ID))
	s.auth.Logout(ctx)
	return Result{Message: "Your account has been deleted"}
}
