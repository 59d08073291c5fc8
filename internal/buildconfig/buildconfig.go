package buildconfig

// Set at build time via -ldflags "-X .../internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version returns the build version string.
func Version() string {
	return version
}

// Commit returns the git commit the binary was built from.
func Commit() string {
	return commit
}

// Date returns the build timestamp.
func Date() string {
	return date
}
