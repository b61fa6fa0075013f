//go:build !linux

package daemon

import (
	"fmt"
	"runtime"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/mainloop"
	"github.com/1broseidon/multiwin/internal/platform"
)

func openX11(config.BackendConfig, *mainloop.Loop, platform.FrameStore) (nativeBackend, error) {
	return nativeBackend{}, fmt.Errorf("x11 backend is not supported on %s; use backend.name: sim", runtime.GOOS)
}
