package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	a, err := GenerateSecret()
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyAcceptsCurrentCode(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code, err := CodeAt(secret, now)
	require.NoError(t, err)
	require.Len(t, code, Digits)

	require.True(t, Verify(secret, code, now, 1))
}

func TestVerifyWindow(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 15, 0, time.UTC)
	code, err := CodeAt(secret, base)
	require.NoError(t, err)

	// A code minted at T is still valid 10 seconds later and one full step
	// away, but not 95 seconds later with window=1.
	require.True(t, Verify(secret, code, base.Add(10*time.Second), 1))
	require.True(t, Verify(secret, code, base.Add(30*time.Second), 1))
	require.True(t, Verify(secret, code, base.Add(-30*time.Second), 1))
	require.False(t, Verify(secret, code, base.Add(95*time.Second), 1))
	require.False(t, Verify(secret, code, base.Add(-95*time.Second), 1))
}

func TestVerifyRejectsNonMatchingCodes(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	valid, err := CodeAt(secret, now)
	require.NoError(t, err)

	// Build a six digit code guaranteed to differ from every code in the
	// 2*window+1 valid steps around now.
	codes := map[string]struct{}{valid: {}}
	for _, offset := range []time.Duration{-30 * time.Second, 30 * time.Second} {
		c, err := CodeAt(secret, now.Add(offset))
		require.NoError(t, err)
		codes[c] = struct{}{}
	}

	wrong := "000000"
	for {
		if _, taken := codes[wrong]; !taken {
			break
		}
		wrong = incrementCode(wrong)
	}

	require.False(t, Verify(secret, wrong, now, 1))
}

func incrementCode(code string) string {
	n := 0
	for _, r := range code {
		n = n*10 + int(r-'0')
	}
	n = (n + 1) % 1000000
	out := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		out[i] = byte('0' + n%10)
		n /= 10
	}
	return string(out)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"123456", "123456", true},
		{" 123 456 ", "123456", true},
		{"123-456", "123456", true},
		{"1234567890", "123456", true}, // truncated to six digits
		{"12345", "12345", false},
		{"", "", false},
		{"abcdef", "", false},
	}

	for _, tc := range cases {
		got, ok := Normalize(tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
		require.Equal(t, tc.ok, ok, "input %q", tc.in)
	}
}

func TestVerifyFailsFastOnMalformedCandidate(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Now()
	require.False(t, Verify(secret, "12 34", now, 1))
	require.False(t, Verify(secret, "garbage", now, 1))
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri, err := ProvisioningURI(secret, "teacher", "ClassBoard")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	require.Contains(t, uri, "issuer=ClassBoard")
	require.Contains(t, uri, "secret="+secret)
	require.Contains(t, uri, "teacher")
}

func TestQRDataURI(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri, err := ProvisioningURI(secret, "teacher", "ClassBoard")
	require.NoError(t, err)

	dataURI, err := QRDataURI(uri)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURI, "data:image/png;base64,"))
	require.Greater(t, len(dataURI), 100)
}
