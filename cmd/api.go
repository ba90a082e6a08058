package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/services"
	"github.com/desertthunder/tunedash/internal/shared"
)

// APIGet makes a direct GET request to the backend with the stored session attached.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if err := r.wire(); err != nil {
		return err
	}
	if r.api == nil {
		return fmt.Errorf("%w: no HTTP client configured", shared.ErrServiceUnavailable)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return &services.HTTPError{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
