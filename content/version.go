package content

import (
	"os"
	"runtime/debug"
)

// Version identifies the deployed content revision. It is CONTENT_VERSION
// when set, otherwise the short VCS revision stamped into the binary, and
// empty when neither is known.
func Version() string {
	if v := os.Getenv("CONTENT_VERSION"); v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 7 {
				return s.Value[:7]
			}
			return s.Value
		}
	}
	return ""
}
