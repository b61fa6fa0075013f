//go:build linux

package daemon

import (
	"fmt"
	"os"

	"github.com/1broseidon/multiwin/internal/config"
	"github.com/1broseidon/multiwin/internal/mainloop"
	"github.com/1broseidon/multiwin/internal/platform"
)

func openX11(cfg config.BackendConfig, loop *mainloop.Loop, frames platform.FrameStore) (nativeBackend, error) {
	if cfg.XAuthority != "" {
		// xgb reads the cookie location from the environment.
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, loop, frames)
	if err != nil {
		return nativeBackend{}, fmt.Errorf("failed to connect to display: %w", err)
	}
	return nativeBackend{
		Backend:    backend,
		eventLoop:  backend.EventLoop,
		disconnect: backend.Disconnect,
	}, nil
}
