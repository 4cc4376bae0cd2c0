package cli

import (
	"github.com/spf13/pflag"
)

// addUserFlag registers the persistent --user flag. An empty user runs the
// command as a guest.
func addUserFlag(fs *pflag.FlagSet, target *string, def string) {
	fs.StringVarP(target, "user", "u", def, "Signed-in user id (empty for guest, env LEARNPATH_USER)")
}
