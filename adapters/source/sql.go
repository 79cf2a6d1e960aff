package source

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"shoptrends/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads the dataset from a database table
type SQLSource struct {
	db    *sqlx.DB
	table string
}

// OpenSQL connects to a postgres:// or sqlite:// DSN
func OpenSQL(ctx context.Context, dsn, table string) (*SQLSource, error) {
	driver, conn, err := splitDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, driver, conn)
	if err != nil {
		return nil, errors.LoadIO("failed to connect to "+driver, err)
	}
	return NewSQLSource(db, table)
}

// NewSQLSource wraps an open database handle
func NewSQLSource(db *sqlx.DB, table string) (*SQLSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid table name %q", table))
	}
	return &SQLSource{db: db, table: table}, nil
}

func splitDSN(dsn string) (driver, conn string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite3://"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite3://"), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite://"), nil
	}
	return "", "", errors.ConfigInvalid("unsupported database DSN: " + dsn)
}

// Close releases the connection pool
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// ReadTable selects every row of the table. Column types are not trusted; every cell
// is read back as text and typed by BuildDataset like any other source.
func (s *SQLSource) ReadTable(ctx context.Context) (*RawTable, error) {
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", s.table))
	if err != nil {
		return nil, errors.LoadIO("failed to query "+s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Parse("failed to read columns of "+s.table, err)
	}
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = NormalizeHeader(c)
	}

	table := &RawTable{Headers: headers}
	for rows.Next() {
		cells, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Parse("failed to scan row of "+s.table, err)
		}
		row := make(RawRow, len(headers))
		for i, cell := range cells {
			row[headers[i]] = formatCell(cell)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.LoadIO("failed to iterate "+s.table, err)
	}
	return table, nil
}

func formatCell(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return strings.TrimSpace(string(t))
	case string:
		return strings.TrimSpace(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", v)
}

// Import creates the table (all TEXT columns) if needed and inserts every row in one
// transaction. It returns the number of rows written.
func (s *SQLSource) Import(ctx context.Context, t *RawTable) (int, error) {
	cols := make([]string, 0, len(t.Headers))
	for _, h := range t.Headers {
		if h == "" {
			continue
		}
		if !tableNamePattern.MatchString(h) {
			return 0, errors.InvalidInput(fmt.Sprintf("column %q cannot be used as a SQL identifier", h))
		}
		cols = append(cols, h)
	}
	if len(cols) == 0 {
		return 0, errors.InvalidInput("table has no columns to import")
	}

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
		defs[i] = quoted[i] + " TEXT"
		marks[i] = "?"
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return 0, errors.Wrapf(err, "failed to create table %s", s.table)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin import transaction")
	}
	defer tx.Rollback()

	insert := tx.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	for n, row := range t.Rows {
		args := make([]interface{}, len(cols))
		for i, c := range cols {
			args[i] = row[c]
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return 0, errors.Wrapf(err, "failed to insert row %d", n+1)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit import")
	}
	return len(t.Rows), nil
}
