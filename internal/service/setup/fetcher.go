package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"

	"github.com/moghtech/periphery-setup/internal/config"
	"github.com/moghtech/periphery-setup/internal/logger"
)

var (
	errBadHTTPStatus = errors.New("unexpected http status")
	errEmptyTagName  = errors.New("release index returned an empty tag name")
)

// Fetcher resolves release versions and downloads release artifacts.
// Every call is a single blocking request with no retry; retry policy
// belongs to the caller.
type Fetcher struct {
	client          *http.Client
	binaryBaseURL   string
	releaseIndexURL string
	arch            string
}

// NewFetcher creates a Fetcher using the source locations from cfg and the
// host CPU architecture.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:          &http.Client{Timeout: cfg.Timeout},
		binaryBaseURL:   cfg.BinaryBaseURL,
		releaseIndexURL: cfg.ReleaseIndexURL,
		arch:            runtime.GOARCH,
	}
}

// releaseIndexResponse is the subset of the release index payload we consume.
type releaseIndexResponse struct {
	TagName string `json:"tag_name"`
}

// ResolveVersion turns the requested version into a concrete release tag.
// An empty string or "latest" is resolved through the release index;
// explicit tags pass through untouched.
func (f *Fetcher) ResolveVersion(ctx context.Context, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" && !strings.EqualFold(requested, "latest") {
		return requested, nil
	}

	logger.InfoKV(ctx, "Resolving latest release", "url", f.releaseIndexURL)

	data, err := f.FetchBytes(ctx, f.releaseIndexURL)
	if err != nil {
		return "", fmt.Errorf("resolve latest release: %w", err)
	}

	var release releaseIndexResponse
	if err = json.Unmarshal(data, &release); err != nil {
		return "", fmt.Errorf("decode release index: %w", err)
	}

	if release.TagName == "" {
		return "", errEmptyTagName
	}

	return release.TagName, nil
}

// BinaryURL composes the download locator for the given release tag and the
// host architecture.
func (f *Fetcher) BinaryURL(version string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(f.binaryBaseURL, "/"), version, binaryNameForArch(f.arch))
}

// binaryNameForArch maps a CPU architecture string to a release binary name.
// ARM64 family aliases select the aarch64 binary; anything else falls back
// to x86_64 rather than failing.
func binaryNameForArch(arch string) string {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "arm64", "aarch64":
		return binaryAarch64
	default:
		return binaryX8664
	}
}

// FetchBytes downloads the resource at url and returns its full body.
// The transfer is all-or-nothing: any error means no bytes are returned.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	return io.ReadAll(response.Body)
}

// FetchText downloads the resource at url and returns its body as text.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	data, err := f.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
