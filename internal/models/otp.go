package models

import "time"

type OtpCode struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	Code      string    `json:"-" db:"otp_code"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Verified  bool      `json:"verified" db:"verified"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidAt reports whether the code can still be redeemed at the given
// instant: not yet redeemed or invalidated, and not past its expiry.
func (o *OtpCode) ValidAt(now time.Time) bool {
	return !o.Verified && o.ExpiresAt.After(now)
}
