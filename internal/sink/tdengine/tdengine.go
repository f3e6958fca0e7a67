// Package tdengine implements the TDengine sink connectors: native,
// websocket, and a documented REST stub, grounded on original_source's
// NativeConnector/WebsocketConnector/RestfulConnector headers. Unlike the
// original's direct taos.h/taosws.h CGO bindings, this repo drives
// TDengine through driver-go/v3's database/sql drivers
// (taosSql for native, taosWS for websocket), since both transports are
// exposed there as ordinary database/sql.Driver implementations — the
// idiomatic Go entry point for a SQL backend, and one this repo's
// cockroachdb/errors-wrapped error style composes with directly.
package tdengine

import (
	"context"
	"database/sql"

	_ "github.com/taosdata/driver-go/v3/taosSql" // native CGO driver, "taosSql"
	_ "github.com/taosdata/driver-go/v3/taosWS"   // pure-Go websocket driver, "taosWS"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/stmtfmt"
)

// Transport selects which driver-go/v3 driver backs a Connector.
type Transport int

const (
	Native Transport = iota
	Websocket
)

func (t Transport) driverName() string {
	if t == Websocket {
		return "taosWS"
	}
	return "taosSql"
}

// Config mirrors ConnectionInfo: DSN is the full driver-go connection
// string for the selected transport (host, port, credentials, and for
// Websocket the ws:// scheme are all DSN-encoded, matching how
// driver-go's own database/sql drivers are configured).
type Config struct {
	Transport Transport
	DSN       string
	Database  string
}

// Connector is one TDengine SQL connection, bound to either a combined
// INSERT statement (sqlfmt.Formatter output) or a prepared bind query
// (stmtfmt.Formatter output).
type Connector struct {
	cfg  Config
	db   *sql.DB
	stmt *sql.Stmt

	preparedQuery string
}

// New builds an unconnected Connector.
func New(cfg Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect opens the database/sql.DB and verifies it with Ping, matching
// NativeConnector::connect/WebsocketConnector::connect's handshake.
func (c *Connector) Connect(ctx context.Context) error {
	db, err := sql.Open(c.cfg.Transport.driverName(), c.cfg.DSN)
	if err != nil {
		return errors.Wrap(err, "tdengine: opening connection")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "tdengine: connecting")
	}
	c.db = db

	if c.cfg.Database != "" {
		if _, err := db.ExecContext(ctx, "USE `"+c.cfg.Database+"`"); err != nil {
			_ = db.Close()
			return errors.Wrapf(err, "tdengine: selecting database %q", c.cfg.Database)
		}
	}
	return nil
}

// Execute dispatches on result.Kind: a StatementList (sqlfmt.Formatter)
// is run with ExecContext per statement, matching
// NativeConnector::execute(const SqlInsertData&); an InsertPayload
// carrying a *stmtfmt.BindPayload is prepared once per distinct query and
// executed per row, matching execute(const StmtV2InsertData&)'s bind
// vector.
func (c *Connector) Execute(ctx context.Context, result format.Result) error {
	switch result.Kind {
	case format.StatementList:
		for _, stmt := range result.Statements {
			if _, err := c.db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, "tdengine: executing statement")
			}
		}
		return nil

	case format.InsertPayload:
		payload, ok := result.Payload.(*stmtfmt.BindPayload)
		if !ok {
			return errors.New("tdengine: result payload is not *stmtfmt.BindPayload")
		}
		return c.executeBind(ctx, payload)

	default:
		return errors.Newf("tdengine: unsupported result kind %v", result.Kind)
	}
}

func (c *Connector) executeBind(ctx context.Context, payload *stmtfmt.BindPayload) error {
	if c.stmt == nil || c.preparedQuery != payload.Query {
		if c.stmt != nil {
			_ = c.stmt.Close()
		}
		stmt, err := c.db.PrepareContext(ctx, payload.Query)
		if err != nil {
			return errors.Wrap(err, "tdengine: preparing bind statement")
		}
		c.stmt = stmt
		c.preparedQuery = payload.Query
	}

	for i := 0; i < payload.Block.UsedTables; i++ {
		tb := &payload.Block.Tables[i]
		for row := 0; row < tb.UsedRows; row++ {
			args, err := bindArgsForRow(payload, tb, row)
			if err != nil {
				return err
			}
			if _, err := c.stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrapf(err, "tdengine: binding row %d of table %q", row, tb.TableName)
			}
		}
	}
	return nil
}

// IsValid pings the live connection, matching is_valid()'s liveness
// check rather than merely checking the handle is non-nil.
func (c *Connector) IsValid() bool {
	if c.db == nil {
		return false
	}
	return c.db.PingContext(context.Background()) == nil
}

// ResetState releases the previously prepared bind statement so the next
// Execute call re-prepares against whatever query it's given, matching
// reset_state()'s clearing of any connector-local per-use state.
func (c *Connector) ResetState() {
	if c.stmt != nil {
		_ = c.stmt.Close()
		c.stmt = nil
		c.preparedQuery = ""
	}
}

// Close closes the statement handle (if any) and the underlying
// database/sql.DB.
func (c *Connector) Close() error {
	c.ResetState()
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
