package version

import (
	"regexp"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if !regexp.MustCompile(`^v\d+\.\d+\.\d+`).MatchString(Version) {
		t.Errorf("Version = %q, want a v-prefixed semver", Version)
	}
}

func TestUserAgent(t *testing.T) {
	prev := Version
	t.Cleanup(func() { Version = prev })

	Version = "v9.9.9-test"
	ua := UserAgent()
	if !strings.HasPrefix(ua, "swiftgo/v9.9.9-test ") {
		t.Errorf("UserAgent() = %q does not follow a linked version", ua)
	}
}
