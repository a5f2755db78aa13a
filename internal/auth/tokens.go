package auth

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

type tokenFile struct {
	TokensByUserID map[string]string `json:"tokensByUserId"`
}

// TokenService mints one bearer token per numeric identity and
// persists the mapping, so the same token comes back on re-mint.
// Validation is an equality check against the stored token; a token is
// only trusted for the identity it was minted for.
type TokenService struct {
	mu     sync.Mutex
	path   string
	secret []byte
	byUser map[int64]string
}

func NewTokenService(path string, secret string) *TokenService {
	t := &TokenService{
		path:   path,
		secret: []byte(secret),
		byUser: make(map[int64]string),
	}
	t.load()
	return t
}

func (t *TokenService) load() {
	raw, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("module", "auth.tokens").Str("path", t.path).Msg("token store not loaded")
		}
		return
	}
	var file tokenFile
	if err := json.Unmarshal(raw, &file); err != nil {
		log.Warn().Err(err).Str("module", "auth.tokens").Str("path", t.path).Msg("token store unreadable")
		return
	}
	for id, token := range file.TokensByUserID {
		userID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		t.byUser[userID] = token
	}
}

// save is best effort; a failed write only costs re-minting after a
// restart.
func (t *TokenService) save() {
	file := tokenFile{TokensByUserID: make(map[string]string, len(t.byUser))}
	for id, token := range t.byUser {
		file.TokensByUserID[strconv.FormatInt(id, 10)] = token
	}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(t.path, raw, 0o600); err != nil {
		log.Warn().Err(err).Str("module", "auth.tokens").Str("path", t.path).Msg("token store not persisted")
	}
}

// Token returns the stored token for the identity, if one was minted.
func (t *TokenService) Token(userID int64) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	token, ok := t.byUser[userID]
	return token, ok
}

// Valid reports whether token is the one minted for userID.
func (t *TokenService) Valid(userID int64, token string) bool {
	if token == "" {
		return false
	}
	expected, ok := t.Token(userID)
	return ok && expected == token
}

// GetOrCreate returns the identity's token, minting and persisting a
// signed one on first use.
func (t *TokenService) GetOrCreate(userID int64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token, ok := t.byUser[userID]; ok {
		return token, nil
	}

	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Issuer:   "bloxcord",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", err
	}
	t.byUser[userID] = token
	t.save()
	log.Info().Str("module", "auth.tokens").Int64("user", userID).Msg("token minted")
	return token, nil
}
