// Package hypr integrates with a running Hyprland compositor: it streams
// foreground-window changes from the event socket, queries window details
// over the control socket, and manages global key binds through hyprctl.
package hypr

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

var ErrNotRunning = errors.New("hyprland might not be running")

type socketKind int

const (
	ctlSocket socketKind = iota
	eventSocket
)

func connect(sock socketKind) (net.Conn, error) {
	socketPath, err := getSocketPath(sock)
	if err != nil {
		return nil, fmt.Errorf("get socket path: %w", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return conn, nil
}

func getSocketPath(sock socketKind) (string, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set, %w", ErrNotRunning)
	}

	name := ".socket.sock"
	if sock == eventSocket {
		name = ".socket2.sock"
	}

	path := filepath.Join(xdg.RuntimeDir, "hypr", signature, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	// compositors older than 0.40 keep their sockets under /tmp
	return filepath.Join("/tmp", "hypr", signature, name), nil
}
