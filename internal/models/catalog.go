package models

import "strings"

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// ArtistRef is the abbreviated artist embedded in a [Track].
type ArtistRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Album struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Images []Image `json:"images,omitempty"`
}

type Followers struct {
	Total int `json:"total"`
}

// Track is a single entry of GET /api/top-tracks. Position in the list is its rank.
type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Artists      []ArtistRef       `json:"artists"`
	Album        Album             `json:"album"`
	Popularity   int               `json:"popularity"`
	DurationMS   int               `json:"duration_ms"`
	Explicit     bool              `json:"explicit"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
	PreviewURL   string            `json:"preview_url,omitempty"`
}

// ArtistNames joins the credited artists with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// URL returns the streaming service link, if any.
func (t Track) URL() string {
	return externalURL(t.ExternalURLs)
}

// Artist is a single entry of GET /api/top-artists. Position in the list is its rank.
type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres"`
	Popularity   int               `json:"popularity"`
	Followers    Followers         `json:"followers"`
	Images       []Image           `json:"images,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

func (a Artist) URL() string {
	return externalURL(a.ExternalURLs)
}

// UserProfile is the optional profile returned with a confirmed session.
type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	Country     string    `json:"country,omitempty"`
	Product     string    `json:"product,omitempty"`
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images,omitempty"`
}

// Name prefers the display name and falls back to the account ID.
func (u *UserProfile) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

// Status is the payload of GET /api/status.
type Status struct {
	LoggedIn bool         `json:"logged_in"`
	User     *UserProfile `json:"user,omitempty"`
}

type TopTracksResponse struct {
	TopTracks []Track `json:"top_tracks"`
}

type TopArtistsResponse struct {
	TopArtists []Artist `json:"top_artists"`
}

func externalURL(urls map[string]string) string {
	if u, ok := urls["spotify"]; ok {
		return u
	}
	for _, u := range urls {
		return u
	}
	return ""
}
