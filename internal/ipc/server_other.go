//go:build !linux

package ipc

import "net"

// verifyPeer relies on the socket's file mode where peer credentials are
// not available.
func verifyPeer(net.Conn) (bool, error) {
	return true, nil
}
