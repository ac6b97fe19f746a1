// Package misc keeps build time information about the program.
package misc

// Set with -ldflags "-X rtc/misc.version=... -X rtc/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
	appName = "rtc"
)

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns git revision program was built from.
func GetGitHash() string {
	return gitHash
}

// GetAppName returns program name used for logs, reports and temporary files.
func GetAppName() string {
	return appName
}
