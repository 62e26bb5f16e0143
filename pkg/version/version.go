package version

// Version is the application version, overridable at build time via
// -ldflags "-X geotale/pkg/version.Version=...".
var Version = "0.4.1"
