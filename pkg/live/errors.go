package live

import (
	"errors"
	"net"
)

var (
	// ErrChannelClosed is returned when sending on a closed channel.
	ErrChannelClosed = errors.New("voice channel is closed")

	// ErrAlreadyConnected is returned by Connect on a session that is not
	// idle or errored.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrMicrophone wraps microphone acquisition failures.
	ErrMicrophone = errors.New("microphone unavailable")
)

// User-facing messages for the error state.
const (
	msgNoNetwork     = "No internet connection."
	msgConnection    = "Connection error. Please try again."
	msgMicOrEndpoint = "Failed to access microphone or voice service."
)

// isOffline classifies transport errors that indicate the host has no
// network connectivity, as opposed to a generic endpoint failure.
func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

// errorMessage maps a transport error to the message surfaced to the user.
func errorMessage(err error) string {
	if isOffline(err) {
		return msgNoNetwork
	}
	return msgConnection
}
