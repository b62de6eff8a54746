package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classdesk/classboard/internal/board/domain"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/pkg/totp"
)

// TwoFactorService manages TOTP enrolment. A credential's secret survives
// disabling; only regeneration replaces it, and regeneration always drops
// back to disabled until a code from the new secret is verified.
type TwoFactorService struct {
	Store  store.Store
	Issuer string
}

// SetupInfo is everything the setup page needs to render.
type SetupInfo struct {
	Secret    string
	URI       string
	QRDataURI string
	Enabled   bool
}

// Setup returns the user's enrolment state, creating a disabled credential
// with a fresh secret on first visit. Revisiting never rotates the secret.
func (s *TwoFactorService) Setup(ctx context.Context, user domain.User) (SetupInfo, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		cred, err = s.enroll(ctx, user.ID)
	}
	if err != nil {
		return SetupInfo{}, err
	}

	return s.setupInfo(cred, user.Username)
}

// Enable verifies a code against the stored secret and switches the
// credential on. A wrong code leaves the credential untouched.
func (s *TwoFactorService) Enable(ctx context.Context, user domain.User, code string) (SetupInfo, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SetupInfo{}, ErrChallengeExpired
		}
		return SetupInfo{}, fmt.Errorf("failed to load TOTP credential: %w", err)
	}

	if !totp.Verify(cred.Secret, code, time.Now(), totpSkewWindows) {
		return SetupInfo{}, ErrInvalidCode
	}

	if err := s.Store.TwoFactor().SetEnabled(ctx, user.ID, true); err != nil {
		return SetupInfo{}, fmt.Errorf("failed to enable TOTP: %w", err)
	}
	cred.Enabled = true

	return s.setupInfo(cred, user.Username)
}

// Disable switches the credential off. The secret is retained so the user
// can re-enable without re-scanning.
func (s *TwoFactorService) Disable(ctx context.Context, user domain.User) (SetupInfo, error) {
	cred, err := s.Store.TwoFactor().GetCredential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return SetupInfo{}, ErrChallengeExpired
		}
		return SetupInfo{}, fmt.Errorf("failed to load TOTP credential: %w", err)
	}

	if err := s.Store.TwoFactor().SetEnabled(ctx, user.ID, false); err != nil {
		return SetupInfo{}, fmt.Errorf("failed to disable TOTP: %w", err)
	}
	cred.Enabled = false

	return s.setupInfo(cred, user.Username)
}

// Regenerate replaces the secret and disables the credential; the old
// secret stops working immediately.
func (s *TwoFactorService) Regenerate(ctx context.Context, user domain.User) (SetupInfo, error) {
	secret, err := totp.GenerateSecret()
	if err != nil {
		return SetupInfo{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	err = s.Store.TwoFactor().ReplaceSecret(ctx, user.ID, secret)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing to replace yet: regenerate on a fresh account enrolls.
		_, err = s.enroll(ctx, user.ID)
		if err != nil {
			return SetupInfo{}, err
		}
		return s.Setup(ctx, user)
	}
	if err != nil {
		return SetupInfo{}, fmt.Errorf("failed to replace TOTP secret: %w", err)
	}

	return s.setupInfo(domain.TwoFactorCredential{UserID: user.ID, Secret: secret}, user.Username)
}

func (s *TwoFactorService) enroll(ctx context.Context, userID string) (domain.TwoFactorCredential, error) {
	secret, err := totp.GenerateSecret()
	if err != nil {
		return domain.TwoFactorCredential{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	now := time.Now().UTC()
	cred := domain.TwoFactorCredential{
		UserID:    userID,
		Secret:    secret,
		Enabled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.TwoFactor().CreateCredential(ctx, cred); err != nil {
		return domain.TwoFactorCredential{}, fmt.Errorf("failed to create TOTP credential: %w", err)
	}
	return cred, nil
}

func (s *TwoFactorService) setupInfo(cred domain.TwoFactorCredential, username string) (SetupInfo, error) {
	uri, err := totp.ProvisioningURI(cred.Secret, username, s.Issuer)
	if err != nil {
		return SetupInfo{}, fmt.Errorf("failed to build provisioning URI: %w", err)
	}

	qr, err := totp.QRDataURI(uri)
	if err != nil {
		return SetupInfo{}, fmt.Errorf("failed to render QR code: %w", err)
	}

	return SetupInfo{
		Secret:    cred.Secret,
		URI:       uri,
		QRDataURI: qr,
		Enabled:   cred.Enabled,
	}, nil
}
