package ig

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const repoPath = "github.com/igmarkets/ig-go"

var (
	versionOnce sync.Once
	userAgent   string
)

// GetVersion returns a User-Agent-style string identifying this module's
// version (read from the running binary's build info) and the Go runtime
// version, sent with every request so broker-side support can correlate a
// report with a specific build.
func GetVersion() string {
	versionOnce.Do(func() {
		buildInfo, ok := debug.ReadBuildInfo()
		if ok {
			for _, dep := range buildInfo.Deps {
				if strings.HasPrefix(dep.Path, repoPath) {
					userAgent += "ig-go/" + dep.Version + " "
					break
				}
			}
		}
		userAgent += "GoRuntime/" + runtime.Version()
	})
	return userAgent
}
