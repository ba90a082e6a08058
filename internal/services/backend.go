package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

const (
	StatusPath     = "/api/status"
	AnalysisPath   = "/api/analysis"
	TopTracksPath  = "/api/top-tracks"
	TopArtistsPath = "/api/top-artists"
	LoginPath      = "/login"
	LogoutPath     = "/logout"
)

// Backend implements [Service] over an [APIService].
type Backend struct {
	api *APIService
}

// NewBackend creates a [Backend]. The API service's client is expected to carry the session transport.
func NewBackend(api *APIService) *Backend {
	return &Backend{api: api}
}

func (b *Backend) Status(ctx context.Context) (*models.Status, error) {
	var status models.Status
	if err := b.api.GetJSON(ctx, StatusPath, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (b *Backend) Analysis(ctx context.Context) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := b.api.GetJSON(ctx, AnalysisPath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (b *Backend) TopTracks(ctx context.Context, r models.TimeRange) ([]models.Track, error) {
	path, err := rangePath(TopTracksPath, r)
	if err != nil {
		return nil, err
	}

	var resp models.TopTracksResponse
	if err := b.api.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.TopTracks == nil {
		resp.TopTracks = []models.Track{}
	}
	return resp.TopTracks, nil
}

func (b *Backend) TopArtists(ctx context.Context, r models.TimeRange) ([]models.Artist, error) {
	path, err := rangePath(TopArtistsPath, r)
	if err != nil {
		return nil, err
	}

	var resp models.TopArtistsResponse
	if err := b.api.GetJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.TopArtists == nil {
		resp.TopArtists = []models.Artist{}
	}
	return resp.TopArtists, nil
}

// Logout calls GET /logout. Callers treat the result as best-effort.
func (b *Backend) Logout(ctx context.Context) error {
	resp, err := b.api.Get(ctx, LogoutPath)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &HTTPError{Method: http.MethodGet, Path: LogoutPath, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}

func (b *Backend) LoginURL() string {
	return b.api.URL(LoginPath)
}

func rangePath(base string, r models.TimeRange) (string, error) {
	if !r.Valid() {
		return "", fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, r)
	}
	return base + "?" + url.Values{"time_range": {r.String()}}.Encode(), nil
}
