package cmd

// Version is the application version, overridable at build time via
// -ldflags "-X github.com/soufianos01/sanitizer-checker/cmd.Version=...".
var Version = "0.1.0"
