package config

import (
	"flag"
	"os"

	"github.com/stayonbrand/gatekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the auth proxy
//	-p string   base URL of the keycard profile API
//	-t string   bearer token for the profile API
//	-d string   path of the local session database
//
// The function filters os.Args to only the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-t", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.AuthBaseURL, "a", cfg.AuthBaseURL, "base URL of the auth proxy")
	fs.StringVar(&cfg.ProfileBaseURL, "p", cfg.ProfileBaseURL, "base URL of the profile API")
	fs.StringVar(&cfg.ProfileAPIToken, "t", cfg.ProfileAPIToken, "bearer token for the profile API")
	fs.StringVar(&cfg.SessionDBPath, "d", cfg.SessionDBPath, "path of the local session database")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
