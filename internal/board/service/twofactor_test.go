package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classdesk/classboard/pkg/totp"
)

func TestSetupEnrollsOnceAndKeepsSecret(t *testing.T) {
	st := newTestStore(t)
	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	user := createUser(t, st, "alice", false)
	ctx := context.Background()

	first, err := svc.Setup(ctx, user)
	require.NoError(t, err)
	require.Len(t, first.Secret, 32)
	require.False(t, first.Enabled)
	require.Contains(t, first.URI, "otpauth://totp/")
	require.Contains(t, first.URI, "ClassBoard")
	require.True(t, strings.HasPrefix(first.QRDataURI, "data:image/png;base64,"))

	// A second visit must not rotate the secret.
	second, err := svc.Setup(ctx, user)
	require.NoError(t, err)
	require.Equal(t, first.Secret, second.Secret)
}

func TestEnableRequiresValidCode(t *testing.T) {
	st := newTestStore(t)
	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	user := createUser(t, st, "alice", false)
	ctx := context.Background()

	info, err := svc.Setup(ctx, user)
	require.NoError(t, err)

	code, err := totp.CodeAt(info.Secret, time.Now())
	require.NoError(t, err)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = svc.Enable(ctx, user, wrong)
	require.ErrorIs(t, err, ErrInvalidCode)

	cred, err := st.TwoFactor().GetCredential(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, cred.Enabled)

	enabled, err := svc.Enable(ctx, user, code)
	require.NoError(t, err)
	require.True(t, enabled.Enabled)
}

func TestDisableRetainsSecret(t *testing.T) {
	st := newTestStore(t)
	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	user := createUser(t, st, "alice", false)
	ctx := context.Background()

	info, err := svc.Setup(ctx, user)
	require.NoError(t, err)
	code, err := totp.CodeAt(info.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.Enable(ctx, user, code)
	require.NoError(t, err)

	disabled, err := svc.Disable(ctx, user)
	require.NoError(t, err)
	require.False(t, disabled.Enabled)
	require.Equal(t, info.Secret, disabled.Secret)

	// Re-enabling works against the retained secret without a re-scan.
	code, err = totp.CodeAt(info.Secret, time.Now())
	require.NoError(t, err)
	again, err := svc.Enable(ctx, user, code)
	require.NoError(t, err)
	require.True(t, again.Enabled)
}

func TestRegenerateReplacesSecretAndDisables(t *testing.T) {
	st := newTestStore(t)
	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	user := createUser(t, st, "alice", false)
	ctx := context.Background()

	info, err := svc.Setup(ctx, user)
	require.NoError(t, err)
	code, err := totp.CodeAt(info.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.Enable(ctx, user, code)
	require.NoError(t, err)

	fresh, err := svc.Regenerate(ctx, user)
	require.NoError(t, err)
	require.NotEqual(t, info.Secret, fresh.Secret)
	require.False(t, fresh.Enabled)

	cred, err := st.TwoFactor().GetCredential(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, cred.Enabled)
	require.Equal(t, fresh.Secret, cred.Secret)

	// Codes from the old secret no longer pass.
	oldCode, err := totp.CodeAt(info.Secret, time.Now())
	require.NoError(t, err)
	if newCode, _ := totp.CodeAt(fresh.Secret, time.Now()); newCode != oldCode {
		_, err = svc.Enable(ctx, user, oldCode)
		require.ErrorIs(t, err, ErrInvalidCode)
	}
}

func TestRegenerateOnFreshAccountEnrolls(t *testing.T) {
	st := newTestStore(t)
	svc := &TwoFactorService{Store: st, Issuer: "ClassBoard"}
	user := createUser(t, st, "alice", false)

	info, err := svc.Regenerate(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, info.Secret, 32)
	require.False(t, info.Enabled)
}
