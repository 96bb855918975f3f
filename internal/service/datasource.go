package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"rpgpt/internal/state"
)

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require"
}

// DataSource loads question and sector tables from a database
type DataSource interface {
	Connect(ctx context.Context, config DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, tableName string) (*state.DataFrame, error)
}

// PostgresDataSource implements DataSource for PostgreSQL
type PostgresDataSource struct {
	db         *sql.DB
	normalizer *FormatNormalizer
}

func NewPostgresDataSource() *PostgresDataSource {
	return &PostgresDataSource{normalizer: NewFormatNormalizer()}
}

func (p *PostgresDataSource) Connect(ctx context.Context, config DataSourceConfig) error {
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to reach postgres at %s:%d: %w", config.Host, config.Port, err)
	}

	p.db = db
	return nil
}

func (p *PostgresDataSource) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name;
	`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// LoadTable reads a whole table into a frame with normalized headers and
// NULLs as NaN. The table must be one ListTables reports.
func (p *PostgresDataSource) LoadTable(ctx context.Context, tableName string) (*state.DataFrame, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, t := range tables {
		if t == tableName {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("table %q not found in schema public", tableName)
	}

	rows, err := p.db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	df := &state.DataFrame{
		Headers:  p.normalizer.NormalizeHeaders(append([]string(nil), columns...)),
		Rows:     [][]string{},
		FileName: tableName,
	}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make([]string, len(columns))
		for i, val := range values {
			record[i] = p.normalizer.NormalizeValue(val)
		}
		df.Rows = append(df.Rows, record)
	}

	return df, rows.Err()
}
