package api

import "runtime"

// Build metadata, overridden with
// -ldflags "-X github.com/MJE43/busfahrer-sim/internal/api.EngineVersion=..."
var (
	EngineVersion = "dev"
	GitCommit     = "unknown"
	BuildTime     = "unknown"
)

// GetVersionInfo reports the build metadata stamped into the binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		GoVersion:     runtime.Version(),
	}
}
