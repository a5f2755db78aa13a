package domain

// ServerSummary is one channel inside a game group, with a handful of
// avatar references for the discovery UI.
type ServerSummary struct {
	JobID       string   `json:"jobId"`
	PlayerCount int      `json:"playerCount"`
	AvatarURLs  []string `json:"avatarUrls"`
}

// GameGroup aggregates the channels that declared the same place id.
// Name and ImageURL are filled by the caller's enrichment step, not here.
type GameGroup struct {
	PlaceID     int64           `json:"placeId"`
	Name        string          `json:"name,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	ServerCount int             `json:"serverCount"`
	PlayerCount int             `json:"playerCount"`
	Servers     []ServerSummary `json:"servers"`
}

// UserSearchResult is one hit of a cross-channel participant search.
type UserSearchResult struct {
	Username  string `json:"username"`
	UserID    int64  `json:"userId,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	JobID     string `json:"jobId"`
}
