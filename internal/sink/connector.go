// Package sink defines the connector contract and pooling used to write
// formatted blocks to a backend (TDengine over native/websocket/REST, MQTT,
// Kafka), grounded on original_source's DatabaseConnector.hpp,
// ConnectionPoolImpl.cpp, and PooledConnector.cpp.
package sink

import (
	"context"

	"github.com/taosdata/taosgen/internal/format"
)

// Connector is one backend write path: connect once, execute any number
// of formatted results, close once. Implementations live in the
// tdengine/mqtt/kafka subpackages.
//
// IsValid and ResetState exist solely to support pooling (see Pool):
// IsValid is checked before a pooled connector is handed back out,
// matching DatabaseConnector::is_valid(); ResetState clears any
// per-use state (e.g. a prepared statement bound to a previous block)
// before the connector returns to the pool, matching reset_state().
type Connector interface {
	Connect(ctx context.Context) error
	Execute(ctx context.Context, result format.Result) error
	IsValid() bool
	ResetState()
	Close() error
}

// Factory builds a fresh Connector, matching ConnectorFactory::create.
type Factory func(ctx context.Context) (Connector, error)
