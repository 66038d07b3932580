package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
)

type SocketListener struct {
	path     string
	listener net.Listener
}

func NewSocketListener(socketPath string) *SocketListener {
	return &SocketListener{
		path: socketPath,
	}
}

// Start removes a stale socket file, listens and restricts the socket to
// the current user.
func (sl *SocketListener) Start() error {
	dir := filepath.Dir(sl.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	if err := os.Remove(sl.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", sl.path)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", sl.path, err)
	}

	sl.listener = listener
	return os.Chmod(sl.path, 0700)
}

func (sl *SocketListener) Accept() (net.Conn, error) {
	if sl.listener == nil {
		return nil, fmt.Errorf("listener not started")
	}
	return sl.listener.Accept()
}

func (sl *SocketListener) Close() error {
	if sl.listener == nil {
		return nil
	}
	return sl.listener.Close()
}

type SocketConnector struct {
	path string
}

func NewSocketConnector(socketPath string) *SocketConnector {
	return &SocketConnector{
		path: socketPath,
	}
}

func (sc *SocketConnector) Connect(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", sc.path)
}
