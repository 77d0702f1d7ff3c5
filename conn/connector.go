package conn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

var (
	// ErrBadPort is returned when the port is not a number.
	ErrBadPort = errors.New("port must be numeric")

	// ErrResolve is returned when the host cannot be resolved.
	ErrResolve = errors.New("cannot resolve collector address")

	// ErrSocket is returned when a socket cannot be created. No further
	// candidate addresses are tried.
	ErrSocket = errors.New("cannot create socket")

	// ErrUnreachable is returned when no candidate address accepted the
	// connection.
	ErrUnreachable = errors.New("collector unreachable")
)

// A Resolver resolves a host name into candidate addresses.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// A Dialer opens stream connections.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Builder builds Connectors.
type Builder struct {
	host     string
	port     string
	resolver Resolver
	dialer   Dialer
}

// MakeBuilder creates a Builder that uses the system resolver and dialer.
func MakeBuilder() Builder {
	return Builder{
		resolver: net.DefaultResolver,
		dialer:   &net.Dialer{},
	}
}

// WithHost sets the collector host name or address.
func (b Builder) WithHost(host string) Builder {
	b.host = host
	return b
}

// WithPort sets the collector port. Service names are not accepted.
func (b Builder) WithPort(port string) Builder {
	b.port = port
	return b
}

// WithResolver sets the resolver.
func (b Builder) WithResolver(r Resolver) Builder {
	b.resolver = r
	return b
}

// WithDialer sets the dialer.
func (b Builder) WithDialer(d Dialer) Builder {
	b.dialer = d
	return b
}

// Build creates the Connector.
func (b Builder) Build() *Connector {
	return &Connector{
		host:     b.host,
		port:     b.port,
		resolver: b.resolver,
		dialer:   b.dialer,
	}
}

// A Connector establishes connections to one collector.
type Connector struct {
	host     string
	port     string
	resolver Resolver
	dialer   Dialer
}

// Address returns the collector address as configured.
func (c *Connector) Address() string {
	return c.host + ":" + c.port
}

// Connect resolves the collector and connects to the first candidate address
// that accepts. It fails immediately when the port is not numeric, when
// resolution fails, or when a socket cannot be created.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	if _, err := strconv.ParseUint(c.port, 10, 16); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadPort, c.port)
	}

	candidates, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}

	var failures []error

	for _, candidate := range candidates {
		address := net.JoinHostPort(candidate.String(), c.port)

		nc, err := c.dialer.DialContext(ctx, network(candidate), address)
		if err == nil {
			return newConn(nc), nil
		}

		if isSocketError(err) {
			return nil, fmt.Errorf("%w: %w", ErrSocket, err)
		}

		failures = append(failures, err)
	}

	return nil, fmt.Errorf("%w: %s: %w",
		ErrUnreachable, c.Address(), errors.Join(failures...))
}

func (c *Connector) resolve(ctx context.Context) ([]net.IPAddr, error) {
	if ip := net.ParseIP(c.host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	candidates, err := c.resolver.LookupIPAddr(ctx, c.host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResolve, c.host, err)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrResolve, c.host)
	}

	return candidates, nil
}

func network(addr net.IPAddr) string {
	if addr.IP.To4() != nil {
		return "tcp4"
	}

	return "tcp6"
}

func isSocketError(err error) bool {
	var sysErr *os.SyscallError

	return errors.As(err, &sysErr) && sysErr.Syscall == "socket"
}
