// Package endpoint parses the net-tester endpoint grammar:
//
//	( (LOCAL_HOST ":")? LOCAL_PORT ":" )? REMOTE_HOST ":" REMOTE_PORT
//
// If only "HOST:PORT" is given it is the remote; the local address binds
// to an ephemeral port chosen by the OS.
package endpoint

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEndpoint indicates a string did not match the endpoint grammar.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// Endpoint is a resolved local/remote address pair. LocalHost and
// LocalPort may be empty, meaning "OS-chosen".
type Endpoint struct {
	LocalHost  string
	LocalPort  string
	RemoteHost string
	RemotePort string
}

// Parse splits s on ':' according to the grammar and classifies the
// trailing two colon-separated fields as the remote host:port, with
// whatever precedes them (if anything) as the local host and/or port.
func Parse(s string) (Endpoint, error) {
	fields := strings.Split(s, ":")

	switch len(fields) {
	case 2:
		// REMOTE_HOST:REMOTE_PORT
		return Endpoint{RemoteHost: fields[0], RemotePort: fields[1]}, validate(fields)
	case 3:
		// LOCAL_PORT:REMOTE_HOST:REMOTE_PORT
		return Endpoint{
			LocalPort:  fields[0],
			RemoteHost: fields[1],
			RemotePort: fields[2],
		}, validate(fields)
	case 4:
		// LOCAL_HOST:LOCAL_PORT:REMOTE_HOST:REMOTE_PORT
		return Endpoint{
			LocalHost:  fields[0],
			LocalPort:  fields[1],
			RemoteHost: fields[2],
			RemotePort: fields[3],
		}, validate(fields)
	default:
		return Endpoint{}, fmt.Errorf("endpoint %q: %w", s, ErrInvalidEndpoint)
	}
}

func validate(fields []string) error {
	for _, f := range fields {
		if f == "" {
			return fmt.Errorf("endpoint %q: empty field: %w", strings.Join(fields, ":"), ErrInvalidEndpoint)
		}
	}
	return nil
}

// String reconstructs the original colon-separated form.
func (e Endpoint) String() string {
	var parts []string
	if e.LocalHost != "" {
		parts = append(parts, e.LocalHost)
	}
	if e.LocalPort != "" {
		parts = append(parts, e.LocalPort)
	}
	parts = append(parts, e.RemoteHost, e.RemotePort)
	return strings.Join(parts, ":")
}

// RemoteAddr returns "host:port" for the remote side, suitable for
// net.Dial / net.ResolveXAddr.
func (e Endpoint) RemoteAddr() string {
	return e.RemoteHost + ":" + e.RemotePort
}

// LocalAddr returns "host:port" for the local side, using an empty host
// (OS-chosen interface) and/or port 0 (OS-chosen ephemeral port) when
// unspecified.
func (e Endpoint) LocalAddr() string {
	port := e.LocalPort
	if port == "" {
		port = "0"
	}
	return e.LocalHost + ":" + port
}
