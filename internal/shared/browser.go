package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// swapped out in tests to exercise the per-platform branches
var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser launches the default system browser at the given URL. The auth
// command uses it to send the user to Spotify's consent page; it does not
// wait for the browser to exit.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
