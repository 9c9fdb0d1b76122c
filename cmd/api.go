package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/hifi/internal/services"
	"github.com/desertthunder/hifi/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct authenticated GET to the upstream API and prints the body.
//
// countryCode is filled in from the token when the caller does not pass one.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	params, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}

	cred, err := r.store.Load()
	if err != nil {
		return err
	}
	if params.Get("countryCode") == "" {
		params.Set("countryCode", cred.CountryCode)
	}

	base := r.config.Upstream.APIURL
	if cmd.Bool("web") {
		base = r.config.Upstream.WebURL
	}

	r.logger.Info("GET request", "base", base, "path", path)

	resp, err := r.api.Get(ctx, cred, services.Request{BaseURL: base, Path: path, Params: params})
	if err != nil {
		return err
	}

	if json.Valid(resp.Body) {
		data, err := resp.JSON()
		if err != nil {
			return err
		}
		return r.writeJSON(data, cmd.Bool("pretty"))
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return r.writePlain("\n")
}

// Region prints the region stored alongside the token. It never fails on a
// missing or broken token file; the report says what is wrong instead.
func (r *Runner) Region(ctx context.Context, cmd *cli.Command) error {
	return r.writeJSON(r.store.Region(), cmd.Bool("pretty"))
}

func parseQuery(pairs []string) (url.Values, error) {
	params := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: query %q is not key=value", shared.ErrInvalidArgument, pair)
		}
		params.Add(key, value)
	}
	return params, nil
}
