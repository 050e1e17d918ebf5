// SPDX-License-Identifier: MPL-2.0

package runfile

import "runtime"

const (
	// PlatformWindows restricts a function to Windows hosts.
	PlatformWindows Platform = "windows"
	// PlatformLinux restricts a function to Linux hosts.
	PlatformLinux Platform = "linux"
	// PlatformMacOS restricts a function to macOS hosts.
	PlatformMacOS Platform = "macos"
	// PlatformUnix matches both Linux and macOS hosts.
	PlatformUnix Platform = "unix"
)

// Platform is the value of an @os attribute: a platform guard restricting a
// function variant to specific operating systems.
type Platform string

// ParsePlatform maps an @os attribute value to a Platform.
// Unrecognized values return ok == false.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformWindows, PlatformLinux, PlatformMacOS, PlatformUnix:
		return Platform(s), true
	default:
		return "", false
	}
}

// Matches reports whether the guard admits the given host OS.
// Host OS values follow runtime.GOOS ("windows", "linux", "darwin").
func (p Platform) Matches(hostOS string) bool {
	switch p {
	case PlatformWindows:
		return hostOS == "windows"
	case PlatformLinux:
		return hostOS == "linux"
	case PlatformMacOS:
		return hostOS == "darwin"
	case PlatformUnix:
		return hostOS == "linux" || hostOS == "darwin"
	default:
		return false
	}
}

// HostOS returns the current host OS identifier (runtime.GOOS).
func HostOS() string { return runtime.GOOS }
