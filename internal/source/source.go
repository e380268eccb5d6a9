// Package source fetches raw mission records from upstream APIs. Each source
// degrades per record type: a failed endpoint is logged and skipped, and the
// fetch only errors when no type produced anything.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hyperjump/tenmon/internal/models"
)

// Source is implemented by record providers.
type Source interface {
	// Name identifies the source in config and job specs ("nasa", "spacex",
	// "static").
	Name() string
	// Fetch returns raw records for the requested record types. An empty or
	// nil types slice means every type the source offers.
	Fetch(ctx context.Context, types []string) ([]models.RawRecord, error)
}

// wantType reports whether t was requested. An empty request selects all.
func wantType(types []string, t string) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

// getJSON issues a GET and decodes the JSON body into out. Error messages
// carry the URL path only, never the query string.
func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", req.URL.Path, err)
	}
	return nil
}
