// Package cumulative provides bounds-consistent propagation for a single
// renewable resource of fixed capacity shared by jobs with fixed durations
// and demands.
//
// Version: 0.1.0
//
// The package implements the classic filtering toolbox for the cumulative
// scheduling constraint: time-table (compulsory part) propagation over a
// resource profile, Vilim-style overload checking and edge-finding on
// Theta/Theta-Lambda trees, and energetic reasoning over job-bound time
// windows. Every deduction is tagged with a compact inference record so a
// host solver can reconstruct the responsible bounds during conflict
// analysis.
package cumulative

// Version represents the current version of the gocumulative library.
const Version = "0.1.0"

// VersionInfo provides detailed version information.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GoVersion: "1.25+",
	}
}
