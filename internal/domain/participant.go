package domain

import "errors"

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// Participant is a user currently joined to a channel.
type Participant struct {
	Username  string `json:"username"`
	UserID    int64  `json:"userId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	IsTyping  bool   `json:"isTyping"`

	CountryCode       string `json:"countryCode,omitempty"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
	// DMPublicKey is opaque key material; encryption happens above this layer.
	DMPublicKey string `json:"dmPublicKey,omitempty"`
}

// Presence carries the optional per-user attributes a client may refresh.
// Empty fields mean "leave as is".
type Presence struct {
	CountryCode       string
	PreferredLanguage string
	DMPublicKey       string
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
