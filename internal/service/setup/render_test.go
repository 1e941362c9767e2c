package setup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testTemplate mirrors the directive lines of the periphery config template,
// surrounded by lines no override should ever touch.
const testTemplate = `## Periphery configuration

root_directory = "/etc/komodo"

# core_address = "https://demo.komo.do"

# connect_as = ""

# onboarding_key = ""

port = 8120`

func strptr(s string) *string {
	return &s
}

// TestRenderConfig_NoOverrides ensures a system-mode render without supplied
// values passes the template through byte-identical.
func TestRenderConfig_NoOverrides(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeSystem, "/root", Overrides{})
	require.Equal(t, testTemplate, got)
}

// TestRenderConfig_OverrideIndependence ensures supplying only connect_as
// changes exactly that line and leaves the other three byte-identical.
func TestRenderConfig_OverrideIndependence(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeSystem, "/root", Overrides{
		ConnectAs: strptr("host-01"),
	})

	wantLines := strings.Split(testTemplate, "\n")
	gotLines := strings.Split(got, "\n")
	require.Len(t, gotLines, len(wantLines))

	for i, line := range gotLines {
		if strings.HasPrefix(wantLines[i], "# connect_as =") {
			require.Equal(t, `connect_as = "host-01"`, line)
			continue
		}

		require.Equal(t, wantLines[i], line)
	}
}

// TestRenderConfig_AllOverrides checks every directive rewrites to key = "value" form.
func TestRenderConfig_AllOverrides(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeSystem, "/root", Overrides{
		RootDirectory: strptr("/srv/komodo"),
		CoreAddress:   strptr("https://core.example.com"),
		ConnectAs:     strptr("host-01"),
		OnboardingKey: strptr("secret"),
	})

	require.Contains(t, got, `root_directory = "/srv/komodo"`)
	require.Contains(t, got, `core_address = "https://core.example.com"`)
	require.Contains(t, got, `connect_as = "host-01"`)
	require.Contains(t, got, `onboarding_key = "secret"`)
	require.NotContains(t, got, "# core_address")
	require.NotContains(t, got, "# connect_as")
	require.NotContains(t, got, "# onboarding_key")
}

// TestRenderConfig_UserModeRootDefault ensures user installs relocate the
// root directory under the home dir when no explicit value is supplied.
func TestRenderConfig_UserModeRootDefault(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeUser, "/home/a", Overrides{})
	require.Contains(t, got, `root_directory = "/home/a/komodo"`)

	// An explicit value beats the home-derived default.
	got = RenderConfig(testTemplate, ModeUser, "/home/a", Overrides{
		RootDirectory: strptr("/data/komodo"),
	})
	require.Contains(t, got, `root_directory = "/data/komodo"`)
}

// TestRenderConfig_SuppliedEmptyValue ensures an explicitly supplied empty
// string still rewrites the line: supplied means supplied, not non-empty.
func TestRenderConfig_SuppliedEmptyValue(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeSystem, "/root", Overrides{
		OnboardingKey: strptr(""),
	})
	require.Contains(t, got, `onboarding_key = ""`)
	require.NotContains(t, got, `# onboarding_key`)
}

// TestRenderConfig_PreservesShape ensures line count and order survive rendering.
func TestRenderConfig_PreservesShape(t *testing.T) {
	t.Parallel()

	got := RenderConfig(testTemplate, ModeUser, "/home/a", Overrides{
		CoreAddress: strptr("https://core.example.com"),
	})

	wantLines := strings.Split(testTemplate, "\n")
	gotLines := strings.Split(got, "\n")
	require.Len(t, gotLines, len(wantLines))
	require.Equal(t, wantLines[0], gotLines[0])
	require.Equal(t, wantLines[len(wantLines)-1], gotLines[len(gotLines)-1])
}
