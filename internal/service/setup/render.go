package setup

import (
	"fmt"
	"strings"
)

// Overrides carries the caller-supplied config values. A nil field means the
// value was not supplied on the command line, which is distinct from an
// explicitly supplied empty string: only supplied values rewrite their
// template line.
type Overrides struct {
	// RootDirectory replaces the root_directory setting.
	RootDirectory *string
	// CoreAddress enables and sets the core_address setting.
	CoreAddress *string
	// ConnectAs enables and sets the connect_as setting.
	ConnectAs *string
	// OnboardingKey enables and sets the onboarding_key setting.
	OnboardingKey *string
}

// lineRule rewrites a template line matched by prefix. render reports
// whether a replacement applies; when it does not, the line passes through
// unchanged (a commented-out directive stays commented).
type lineRule struct {
	prefix string
	render func() (string, bool)
}

// configRules returns the override rules in their fixed priority order.
// The prefixes are disjoint, so at most one rule fires per line.
func configRules(mode InstallMode, homeDir string, ov Overrides) []lineRule {
	return []lineRule{
		{
			prefix: "root_directory =",
			render: func() (string, bool) {
				if ov.RootDirectory != nil {
					return fmt.Sprintf("root_directory = %q", *ov.RootDirectory), true
				}

				// User installs cannot use the system default under /etc.
				if mode == ModeUser {
					return fmt.Sprintf("root_directory = %q", homeDir+"/komodo"), true
				}

				return "", false
			},
		},
		{
			prefix: "# core_address =",
			render: func() (string, bool) {
				if ov.CoreAddress != nil {
					return fmt.Sprintf("core_address = %q", *ov.CoreAddress), true
				}

				return "", false
			},
		},
		{
			prefix: "# connect_as =",
			render: func() (string, bool) {
				if ov.ConnectAs != nil {
					return fmt.Sprintf("connect_as = %q", *ov.ConnectAs), true
				}

				return "", false
			},
		},
		{
			prefix: "# onboarding_key =",
			render: func() (string, bool) {
				if ov.OnboardingKey != nil {
					return fmt.Sprintf("onboarding_key = %q", *ov.OnboardingKey), true
				}

				return "", false
			},
		},
	}
}

// RenderConfig applies the override rules to the fetched template text and
// returns the final config. Output has the same number of lines in the same
// order; each line is either replaced by exactly one matching rule or passed
// through byte-identical. The function is pure.
func RenderConfig(template string, mode InstallMode, homeDir string, ov Overrides) string {
	rules := configRules(mode, homeDir, ov)
	lines := strings.Split(template, "\n")

	for i, line := range lines {
		for _, rule := range rules {
			if !strings.HasPrefix(line, rule.prefix) {
				continue
			}

			if replacement, ok := rule.render(); ok {
				lines[i] = replacement
			}

			break
		}
	}

	return strings.Join(lines, "\n")
}
