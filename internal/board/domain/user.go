package domain

import "time"

// SharedBoardUserID is the seeded system account that owns the shared
// classroom board. It is privileged but has no password, so it can never
// log in.
const SharedBoardUserID = "00000000000000000000000000"

// User is a board account. Privileged users (administrators) own the shared
// classroom board and may invite students onto it.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id encoded, empty for system accounts that cannot log in
	Privileged   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TwoFactorCredential holds a user's TOTP enrolment. A disabled credential
// keeps its secret so the setup flow can re-enable it without forcing a
// re-scan; the secret is never cleared once generated, only replaced.
type TwoFactorCredential struct {
	UserID    string
	Secret    string // base32, 32 characters
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
