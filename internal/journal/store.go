package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
	"github.com/rizzk/vaultsync/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
  id TEXT PRIMARY KEY,
  date TEXT NOT NULL,
  ticker TEXT NOT NULL,
  side TEXT CHECK(side IN ('long','short')) NOT NULL,
  entry REAL,
  exit REAL,
  stop REAL,
  qty REAL,
  risk REAL,
  reward REAL,
  rr REAL,
  thesis TEXT,
  notes TEXT,
  tags TEXT
);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades(ticker);
`

const columns = "id, date, ticker, side, entry, exit, stop, qty, risk, reward, rr, thesis, notes, tags"

// poolSize is small because the CLI runs one statement at a time
const poolSize = 2

// Store is the trades database
type Store struct {
	pool   *sqlitex.Pool
	path   string
	logger logger.Logger
	now    func() time.Time
}

// Open opens or creates the database at path, creating parent
// directories and the schema.
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	if path == "" {
		return nil, vsErrors.NewConfigError("db", path,
			vsErrors.Wrap(vsErrors.ErrInvalidConfiguration, "database path must not be empty"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, vsErrors.NewFSError("mkdir", filepath.Dir(path), err)
	}

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, vsErrors.Wrapf(err, "journal: opening %s", path)
	}

	s := &Store{pool: pool, path: path, logger: log, now: time.Now}

	conn, err := s.take(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		_ = pool.Close()
		return nil, vsErrors.Wrap(err, "journal: creating schema")
	}

	log.Info("Opened trade journal at %s", path)
	return s, nil
}

func prepareConn(conn *sqlite.Conn) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return vsErrors.Wrapf(err, "journal: %s", pragma)
		}
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, vsErrors.Wrap(err, "journal: take connection")
	}
	return conn, nil
}

// Save normalizes t and inserts it, replacing any row with the same id.
// It returns the stored trade.
func (s *Store) Save(ctx context.Context, t Trade) (Trade, error) {
	t, err := t.Normalize(s.now())
	if err != nil {
		return t, err
	}

	conn, err := s.take(ctx)
	if err != nil {
		return t, err
	}
	defer s.pool.Put(conn)

	var rr any
	if t.RR != nil {
		rr = *t.RR
	}

	err = sqlitex.Execute(conn,
		"INSERT OR REPLACE INTO trades ("+columns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{
				t.ID, t.Date, t.Ticker, t.Side,
				t.Entry, t.Exit, t.Stop, t.Qty,
				t.Risk, t.Reward, rr,
				t.Thesis, t.Notes, t.Tags,
			},
		})
	if err != nil {
		return t, vsErrors.Wrapf(err, "journal: saving trade %s", t.ID)
	}

	s.logger.Info("Saved trade %s (%s %s)", t.ID, t.Side, t.Ticker)
	return t, nil
}

// Recent returns up to limit trades, newest date first. Rows sharing a
// date come back in reverse insertion order. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Trade, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	query := "SELECT " + columns + " FROM trades ORDER BY date DESC, ROWID DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var trades []Trade
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			trades = append(trades, scanTrade(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, vsErrors.Wrap(err, "journal: listing trades")
	}
	return trades, nil
}

// Get returns the trade with id, or false when absent
func (s *Store) Get(ctx context.Context, id string) (Trade, bool, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return Trade{}, false, err
	}
	defer s.pool.Put(conn)

	var (
		trade Trade
		found bool
	)
	err = sqlitex.Execute(conn, "SELECT "+columns+" FROM trades WHERE id = ?", &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			trade = scanTrade(stmt)
			found = true
			return nil
		},
	})
	if err != nil {
		return Trade{}, false, vsErrors.Wrapf(err, "journal: loading trade %s", id)
	}
	return trade, found, nil
}

// TopTickers ranks tickers by average reward-to-risk, treating a missing
// ratio as zero.
func (s *Store) TopTickers(ctx context.Context, limit int) ([]TickerStat, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var stats []TickerStat
	err = sqlitex.Execute(conn, `
		SELECT ticker, AVG(COALESCE(rr, 0)) AS avg_rr, COUNT(*) AS trades
		FROM trades
		GROUP BY ticker
		HAVING trades > 0
		ORDER BY avg_rr DESC, ticker ASC
		LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				stats = append(stats, TickerStat{
					Ticker: stmt.ColumnText(0),
					AvgRR:  stmt.ColumnFloat(1),
					Trades: stmt.ColumnInt(2),
				})
				return nil
			},
		})
	if err != nil {
		return nil, vsErrors.Wrap(err, "journal: ranking tickers")
	}
	return stats, nil
}

func scanTrade(stmt *sqlite.Stmt) Trade {
	t := Trade{
		ID:     stmt.ColumnText(0),
		Date:   stmt.ColumnText(1),
		Ticker: stmt.ColumnText(2),
		Side:   stmt.ColumnText(3),
		Entry:  stmt.ColumnFloat(4),
		Exit:   stmt.ColumnFloat(5),
		Stop:   stmt.ColumnFloat(6),
		Qty:    stmt.ColumnFloat(7),
		Risk:   stmt.ColumnFloat(8),
		Reward: stmt.ColumnFloat(9),
		Thesis: stmt.ColumnText(11),
		Notes:  stmt.ColumnText(12),
		Tags:   stmt.ColumnText(13),
	}
	if !stmt.ColumnIsNull(10) {
		rr := stmt.ColumnFloat(10)
		t.RR = &rr
	}
	return t
}

// Close closes the pool
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return vsErrors.Wrapf(err, "journal: closing %s", s.path)
	}
	return nil
}
