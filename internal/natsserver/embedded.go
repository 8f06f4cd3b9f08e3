// Package natsserver runs an embedded NATS server so simulated vehicles
// can subscribe to V2X alerts without an external broker.
package natsserver

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EmbeddedNATS wraps an embedded server with an internal client
// connection used by the alert publisher.
type EmbeddedNATS struct {
	server *server.Server
	conn   *nats.Conn
	port   int
	logger *zap.Logger
}

// Config for the embedded server. Alerts are small JSON documents, so the
// payload ceiling stays tight.
type Config struct {
	Port       int
	MaxPayload int32
}

// DefaultConfig returns sensible defaults for alert traffic.
func DefaultConfig() Config {
	return Config{
		Port:       4222,
		MaxPayload: 64 * 1024,
	}
}

// New creates and starts an embedded NATS server.
func New(cfg Config, logger *zap.Logger) (*EmbeddedNATS, error) {
	if cfg.Port == 0 {
		cfg.Port = 4222
	}
	if cfg.MaxPayload == 0 {
		cfg.MaxPayload = 64 * 1024
	}

	opts := &server.Options{
		Host:          "0.0.0.0",
		Port:          cfg.Port,
		NoLog:         true,
		NoSigs:        true,
		MaxPayload:    cfg.MaxPayload,
		WriteDeadline: 10 * time.Second,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		return nil, fmt.Errorf("NATS server not ready after 5 seconds")
	}

	nc, err := nats.Connect(
		fmt.Sprintf("nats://localhost:%d", cfg.Port),
		nats.Name("workzone-monitor-internal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	logger.Info("Embedded NATS server started", zap.Int("port", cfg.Port))

	return &EmbeddedNATS{
		server: ns,
		conn:   nc,
		port:   cfg.Port,
		logger: logger,
	}, nil
}

// Conn returns the internal client connection.
func (e *EmbeddedNATS) Conn() *nats.Conn {
	return e.conn
}

// Address returns the NATS server address for external subscribers.
func (e *EmbeddedNATS) Address() string {
	return fmt.Sprintf("nats://localhost:%d", e.port)
}

// NumClients returns the number of connected clients.
func (e *EmbeddedNATS) NumClients() int {
	return e.server.NumClients()
}

// Shutdown stops the client connection and the server.
func (e *EmbeddedNATS) Shutdown() {
	if e.conn != nil {
		e.conn.Close()
	}
	if e.server != nil {
		e.server.Shutdown()
	}
	e.logger.Info("Embedded NATS server stopped")
}
