package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.SignalRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signal_bot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the writer and readers.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// The Go driver benefits from a single connection with SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		strength TEXT NOT NULL,
		score INTEGER NOT NULL,
		price REAL NOT NULL,
		reason TEXT NOT NULL,
		signal_time TIMESTAMP NOT NULL,
		direction TEXT DEFAULT NULL,
		entry_price REAL DEFAULT NULL,
		stop_loss_price REAL DEFAULT NULL,
		stop_loss_distance REAL DEFAULT NULL,
		position_size REAL DEFAULT NULL,
		position_value REAL DEFAULT NULL,
		risk_amount REAL DEFAULT NULL,
		realized_risk_multiple REAL DEFAULT NULL,
		degenerate INTEGER NOT NULL DEFAULT 0,
		targets TEXT DEFAULT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_signals_symbol_created_at ON signals (symbol, created_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Create saves a signal record and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, rec *domain.SignalRecord) (int64, error) {
	const query = `
	INSERT INTO signals (symbol, strength, score, price, reason, signal_time,
		direction, entry_price, stop_loss_price, stop_loss_distance,
		position_size, position_value, risk_amount, realized_risk_multiple,
		degenerate, targets, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var (
		direction, targets                      sql.NullString
		entryPrice, stopPrice, stopDistance     sql.NullFloat64
		positionSize, positionValue, riskAmount sql.NullFloat64
		realizedMultiple                        sql.NullFloat64
		degenerate                              bool
	)
	if plan := rec.Plan; plan != nil {
		direction = sql.NullString{String: string(plan.Direction), Valid: true}
		entryPrice = sql.NullFloat64{Float64: plan.EntryPrice, Valid: true}
		stopPrice = sql.NullFloat64{Float64: plan.StopLossPrice, Valid: true}
		stopDistance = sql.NullFloat64{Float64: plan.StopLossDistance, Valid: true}
		positionSize = sql.NullFloat64{Float64: plan.PositionSize, Valid: true}
		positionValue = sql.NullFloat64{Float64: plan.PositionValue, Valid: true}
		riskAmount = sql.NullFloat64{Float64: plan.RiskAmount, Valid: true}
		realizedMultiple = sql.NullFloat64{Float64: plan.RealizedRiskMultiple, Valid: true}
		degenerate = plan.DegenerateRisk

		encoded, err := json.Marshal(plan.Targets)
		if err != nil {
			return 0, fmt.Errorf("failed to encode targets for symbol %s: %w", rec.Signal.Symbol, err)
		}
		targets = sql.NullString{String: string(encoded), Valid: true}
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query,
		rec.Signal.Symbol, string(rec.Signal.Strength), rec.Signal.Score,
		rec.Signal.Price, rec.Signal.Reason, rec.Signal.Time,
		direction, entryPrice, stopPrice, stopDistance,
		positionSize, positionValue, riskAmount, realizedMultiple,
		degenerate, targets, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert signal for symbol %s: %w", rec.Signal.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for signal %s: %w", rec.Signal.Symbol, err)
	}
	rec.ID = id
	r.logger.Debug(ctx, "Signal record created", map[string]interface{}{"signalID": id, "symbol": rec.Signal.Symbol, "strength": string(rec.Signal.Strength)})
	return id, nil
}

// FindRecentBySymbol retrieves the most recent records for a symbol.
func (r *Repository) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.SignalRecord, error) {
	const query = `
	SELECT id, symbol, strength, score, price, reason, signal_time,
		direction, entry_price, stop_loss_price, stop_loss_distance,
		position_size, position_value, risk_amount, realized_risk_multiple,
		degenerate, targets, created_at
	FROM signals
	WHERE symbol = ?
	ORDER BY created_at DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent signals for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	var records []*domain.SignalRecord
	for rows.Next() {
		rec, err := scanSignalRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal row for symbol %s: %w", symbol, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signal rows for symbol %s: %w", symbol, err)
	}
	return records, nil
}

// CountTodayBySymbol counts the records stored today (UTC) for a symbol.
func (r *Repository) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM signals WHERE symbol = ? AND created_at >= ?`

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol, startOfDay).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count today's signals for symbol %s: %w", symbol, err)
	}
	return count, nil
}

// scanSignalRecord scans a row into a SignalRecord, rebuilding the plan
// when the plan columns are present.
func scanSignalRecord(rows *sql.Rows) (*domain.SignalRecord, error) {
	var (
		rec                                     domain.SignalRecord
		strength                                string
		direction, targets                      sql.NullString
		entryPrice, stopPrice, stopDistance     sql.NullFloat64
		positionSize, positionValue, riskAmount sql.NullFloat64
		realizedMultiple                        sql.NullFloat64
		degenerate                              bool
	)
	err := rows.Scan(&rec.ID, &rec.Signal.Symbol, &strength, &rec.Signal.Score,
		&rec.Signal.Price, &rec.Signal.Reason, &rec.Signal.Time,
		&direction, &entryPrice, &stopPrice, &stopDistance,
		&positionSize, &positionValue, &riskAmount, &realizedMultiple,
		&degenerate, &targets, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Signal.Strength = domain.SignalStrength(strength)

	if direction.Valid {
		plan := &domain.PositionPlan{
			Direction:            domain.TradeDirection(direction.String),
			EntryPrice:           entryPrice.Float64,
			StopLossPrice:        stopPrice.Float64,
			StopLossDistance:     stopDistance.Float64,
			PositionSize:         positionSize.Float64,
			PositionValue:        positionValue.Float64,
			RiskAmount:           riskAmount.Float64,
			RealizedRiskMultiple: realizedMultiple.Float64,
			DegenerateRisk:       degenerate,
		}
		if targets.Valid && targets.String != "" {
			if err := json.Unmarshal([]byte(targets.String), &plan.Targets); err != nil {
				return nil, fmt.Errorf("failed to decode targets: %w", err)
			}
		}
		rec.Plan = plan
	}
	return &rec, nil
}
