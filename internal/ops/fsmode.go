package ops

import (
	"os"

	"github.com/srg/rayq/internal/rayerr"
)

// parseFileMode translates the canonical POSIX-style short forms spec §4.5
// names for fs_open/fs_symlink into an os.OpenFile flag set. Any other
// string is a programmer error, exactly as ray_open_flags aborts on an
// unrecognized mode.
func parseFileMode(mode string) int {
	switch mode {
	case "r":
		return os.O_RDONLY
	case "r+":
		return os.O_RDWR
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND
	default:
		rayerr.Fatal("fs_open", "unrecognized file mode %q", mode)
		return 0 // unreachable: Fatal panics
	}
}
