// syncgate manages per-user Google account connections for the onboarding
// CRM and mirrors client appointments into each user's Google Calendar.
package main

import "github.com/onboardhq/syncgate/cmd"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
