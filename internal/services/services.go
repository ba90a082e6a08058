// package services defines the [Service] interface for the statistics backend and its HTTP implementation
package services

import (
	"context"

	"github.com/desertthunder/tunedash/internal/models"
)

// Service is the typed surface of the statistics backend.
type Service interface {
	// Status checks the current session. The token, if any, travels with the transport.
	Status(ctx context.Context) (*models.Status, error)

	// Analysis returns the genre buckets of the user's saved tracks.
	Analysis(ctx context.Context) (*models.AnalysisResult, error)

	// TopTracks returns rank-ordered tracks for the given window.
	TopTracks(ctx context.Context, r models.TimeRange) ([]models.Track, error)

	// TopArtists returns rank-ordered artists for the given window.
	TopArtists(ctx context.Context, r models.TimeRange) ([]models.Artist, error)

	// Logout ends the server-side session.
	Logout(ctx context.Context) error

	// LoginURL is where the browser starts the OAuth flow.
	LoginURL() string
}
