package service

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/skinlens/internal/adapters/vendor"
	"github.com/okian/skinlens/internal/domain/apierr"
	"github.com/okian/skinlens/internal/domain/model"
	"github.com/okian/skinlens/pkg/logger"
)

// required returns a validation error naming the first blank field.
func required(op string, fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return apierr.Validation(op, f[0]+" is required")
		}
	}
	return nil
}

// SignUp creates an account; the vendor then sends an OTP to the email.
func (s *Service) SignUp(ctx context.Context, in vendor.SignUpRequest) (model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := required("sign-up", [2]string{"email", in.Email}, [2]string{"password", in.Password}); err != nil {
		return model.User{}, err
	}
	u, err := s.client.SignUp(ctx, in)
	if err != nil {
		return model.User{}, err
	}
	s.logger.Info(ctx, "account created, awaiting OTP", logger.String("email", u.Email))
	return u, nil
}

// VerifyOTP confirms the account. When the vendor returns tokens the user is
// signed in straight away.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) (model.Session, error) {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if err := required("verify-otp", [2]string{"email", email}, [2]string{"otp", otp}); err != nil {
		return model.Session{}, err
	}
	res, err := s.client.VerifyOTP(ctx, email, otp)
	if err != nil {
		return model.Session{}, err
	}
	if res.AccessToken() != "" {
		s.signIn(ctx, res, email)
	}
	return s.session.Snapshot(), nil
}

// Login signs in, stores the tokens and loads the profile.
func (s *Service) Login(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if err := required("login", [2]string{"email", email}, [2]string{"password", password}); err != nil {
		return model.Session{}, err
	}
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}
	if res.AccessToken() == "" {
		return model.Session{}, apierr.New(apierr.KindServer, "login", "no access token in response")
	}
	s.signIn(ctx, res, email)
	return s.session.Snapshot(), nil
}

func (s *Service) signIn(ctx context.Context, res vendor.AuthResult, email string) {
	u := res.User
	if u.Email == "" {
		u.Email = email
	}
	s.session.SignIn(ctx, &u, res.AccessToken(), res.RefreshToken())
	s.logger.Info(ctx, "signed in", logger.String("user", u.ID))

	if _, err := s.Profile(ctx); err != nil && !errors.Is(err, apierr.ErrNotFound) {
		s.logger.Warn(ctx, "profile not loaded after sign-in", logger.Error(err))
	}
}

// Logout clears the session, including its durable copy.
func (s *Service) Logout(ctx context.Context) {
	s.session.Logout(ctx)
	s.logger.Info(ctx, "signed out")
}

// Profile fetches the profile and caches it in the session.
func (s *Service) Profile(ctx context.Context) (model.Profile, error) {
	p, err := s.client.Profile(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	s.session.SetProfile(ctx, &p)
	return p, nil
}

// CreateProfile stores the onboarding answers.
func (s *Service) CreateProfile(ctx context.Context, p model.Profile) (model.Profile, error) {
	if err := required("create-profile", [2]string{"full name", p.FullName}); err != nil {
		return model.Profile{}, err
	}
	created, err := s.client.CreateProfile(ctx, p)
	if err != nil {
		return model.Profile{}, err
	}
	s.session.SetProfile(ctx, &created)
	return created, nil
}

// UpdateProfile edits the profile, uploading avatar when given.
func (s *Service) UpdateProfile(ctx context.Context, p model.Profile, avatar *vendor.Avatar) (model.Profile, error) {
	if avatar != nil {
		if err := validateImage("update-profile", avatar.Filename, avatar.Data); err != nil {
			return model.Profile{}, err
		}
	}
	updated, err := s.client.UpdateProfile(ctx, p, avatar)
	if err != nil {
		return model.Profile{}, err
	}
	s.session.SetProfile(ctx, &updated)
	return updated, nil
}
