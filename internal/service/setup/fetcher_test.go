package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moghtech/periphery-setup/internal/config"
)

func testSources(baseURL string) *config.Config {
	return &config.Config{
		ConfigTemplateURL: baseURL + "/periphery.config.toml",
		BinaryBaseURL:     baseURL + "/download",
		ReleaseIndexURL:   baseURL + "/releases/latest",
		Timeout:           5 * time.Second,
	}
}

// TestBinaryNameForArch checks ARM64 alias handling and the x86_64 fallback.
func TestBinaryNameForArch(t *testing.T) {
	t.Parallel()

	require.Equal(t, binaryAarch64, binaryNameForArch("arm64"))
	require.Equal(t, binaryAarch64, binaryNameForArch("aarch64"))
	require.Equal(t, binaryAarch64, binaryNameForArch("ARM64"))

	// Unrecognized architectures never error, they fall back to x86_64.
	require.Equal(t, binaryX8664, binaryNameForArch("amd64"))
	require.Equal(t, binaryX8664, binaryNameForArch("riscv64"))
	require.Equal(t, binaryX8664, binaryNameForArch(""))
}

// TestBinaryURL checks locator composition from base URL, version and architecture.
func TestBinaryURL(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(testSources("https://releases.local"))
	fetcher.arch = "amd64"
	require.Equal(t,
		"https://releases.local/download/v1.18.4/periphery-x86_64",
		fetcher.BinaryURL("v1.18.4"))

	fetcher.arch = "arm64"
	require.Equal(t,
		"https://releases.local/download/v1.18.4/periphery-aarch64",
		fetcher.BinaryURL("v1.18.4"))
}

// TestResolveVersion_Passthrough ensures explicit tags are not resolved remotely.
func TestResolveVersion_Passthrough(t *testing.T) {
	t.Parallel()

	fetcher := NewFetcher(testSources("https://releases.invalid"))

	got, err := fetcher.ResolveVersion(context.Background(), "v2.0.0")
	require.NoError(t, err)
	require.Equal(t, "v2.0.0", got)
}

// TestResolveVersion_Latest resolves "latest" and "" through the release index.
func TestResolveVersion_Latest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/releases/latest", r.URL.Path)
		_, _ = w.Write([]byte(`{"tag_name": "v1.18.4", "name": "Komodo v1.18.4"}`))
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testSources(server.URL))

	for _, requested := range []string{"latest", "LATEST", "", "  "} {
		got, err := fetcher.ResolveVersion(context.Background(), requested)
		require.NoError(t, err)
		require.Equal(t, "v1.18.4", got)
	}
}

// TestResolveVersion_EmptyTag fails when the release index has no tag name.
func TestResolveVersion_EmptyTag(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testSources(server.URL))

	_, err := fetcher.ResolveVersion(context.Background(), "latest")
	require.ErrorIs(t, err, errEmptyTagName)
}

// TestFetchBytes_BadStatus ensures non-200 responses surface as errors with no bytes.
func TestFetchBytes_BadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testSources(server.URL))

	data, err := fetcher.FetchBytes(context.Background(), server.URL+"/missing")
	require.ErrorIs(t, err, errBadHTTPStatus)
	require.Nil(t, data)
}

// TestFetchText roundtrips template text through the fetcher.
func TestFetchText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("root_directory = \"/etc/komodo\"\n"))
	}))
	t.Cleanup(server.Close)

	fetcher := NewFetcher(testSources(server.URL))

	text, err := fetcher.FetchText(context.Background(), server.URL+"/periphery.config.toml")
	require.NoError(t, err)
	require.Equal(t, "root_directory = \"/etc/komodo\"\n", text)
}
