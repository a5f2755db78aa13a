// Package avatar resolves headshot thumbnails from the Roblox API.
// It is an external collaborator: lookups carry a bounded timeout and
// degrade to "no avatar" instead of failing the join that asked.
package avatar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const headshotURL = "https://thumbnails.roblox.com/v1/users/avatar-headshot?userIds=%d&size=48x48&format=Png&isCircular=true"

type Resolver struct {
	client *http.Client
}

func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{client: &http.Client{Timeout: timeout}}
}

type thumbnailResponse struct {
	Data []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// HeadshotURL returns the avatar reference for the identity, or ""
// when the lookup fails or times out.
func (r *Resolver) HeadshotURL(ctx context.Context, userID int64) string {
	if userID == 0 {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(headshotURL, userID), nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("module", "avatar").Int64("user", userID).Msg("headshot lookup failed")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var body thumbnailResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || len(body.Data) == 0 {
		return ""
	}
	return body.Data[0].ImageURL
}
