// cmd/enginemark/main.go
package main

import (
	enginemark "github.com/mwiater/enginemark/internal/commands"
)

// Build-time variables injected via -ldflags.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// Indirections kept as variables so tests can verify the wiring.
var (
	setVersionInfo = enginemark.SetVersionInfo
	executeCmd     = enginemark.Execute
)

// main starts the enginemark CLI application by delegating to the
// cobra root command defined in the enginemark package.
func main() {
	setVersionInfo(appVersion, appCommit, appDate)
	executeCmd()
}
