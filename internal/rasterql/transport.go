package rasterql

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stockroomlabs/brotherlabel/internal/shared/logger"
)

// Backend selects the transport used to reach the printer.
type Backend string

const (
	BackendNetwork Backend = "network"
	BackendUSB     Backend = "usb"
)

const (
	defaultNetworkPort = "9100"
	dialTimeout        = 10 * time.Second
	writeTimeout       = 30 * time.Second
)

// ParseIdentifier splits a printer identifier of the form tcp://<ip>[:port]
// or usb://<device> into its backend and target.
func ParseIdentifier(identifier string) (Backend, string, error) {
	scheme, target, ok := strings.Cut(identifier, "://")
	if !ok || target == "" {
		return "", "", fmt.Errorf("invalid printer identifier %q", identifier)
	}
	switch scheme {
	case "tcp":
		if !strings.Contains(target, ":") {
			target = net.JoinHostPort(target, defaultNetworkPort)
		}
		return BackendNetwork, target, nil
	case "usb", "file":
		return BackendUSB, target, nil
	default:
		return "", "", fmt.Errorf("unsupported printer identifier scheme %q", scheme)
	}
}

// Send writes an instruction blob to the printer. The call blocks until the
// full blob has been written (or the write deadline expires); errors from
// the transport are returned as-is.
func Send(instructions []byte, printerIdentifier string, backend Backend, blocking bool) error {
	parsed, target, err := ParseIdentifier(printerIdentifier)
	if err != nil {
		return err
	}
	if backend != "" && backend != parsed {
		return fmt.Errorf("printer identifier %q does not match backend %q", printerIdentifier, backend)
	}

	logger.Info("Sending raster instructions",
		zap.String("backend", string(parsed)),
		zap.String("target", target),
		zap.Int("bytes", len(instructions)),
		zap.Bool("blocking", blocking))

	switch parsed {
	case BackendNetwork:
		return sendNetwork(instructions, target, blocking)
	case BackendUSB:
		return sendUSB(instructions, target)
	default:
		return fmt.Errorf("unsupported backend %q", parsed)
	}
}

func sendNetwork(instructions []byte, addr string, blocking bool) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	if blocking {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
	}

	if _, err := conn.Write(instructions); err != nil {
		return err
	}
	return nil
}

func sendUSB(instructions []byte, device string) error {
	// Kernel printer devices like /dev/usb/lp0 accept raw raster writes
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(instructions); err != nil {
		return err
	}
	return nil
}
