package http

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"go.uber.org/zap"
)

// Listen binds the first free port in [port, port+attempts). Only "address
// in use" moves on to the next port; any other error is returned at once.
func Listen(port, attempts int, logger *zap.Logger) (net.Listener, error) {
	for i := 0; i < attempts; i++ {
		addr := fmt.Sprintf(":%d", port+i)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		if logger != nil {
			logger.Warn("port in use, trying next", zap.Int("port", port+i), zap.Int("attempts_left", attempts-i-1))
		}
	}
	return nil, fmt.Errorf("no available port in range %d-%d", port, port+attempts-1)
}
