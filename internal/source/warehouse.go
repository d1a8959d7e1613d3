package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/ignite/campaign-insights/internal/domain"
)

// DefaultWarehouseTable holds one row per completed deployment.
const DefaultWarehouseTable = "CAMPAIGN_METRICS"

var tableIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*){0,2}$`)

// WarehouseConfig holds Snowflake connection settings.
type WarehouseConfig struct {
	Account   string
	User      string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Table     string
}

// ParseWarehouseConnString reads the semicolon-separated form used in
// deployment secrets: "ACCOUNT=x;USER=y;PASSWORD=z;DB=db.schema;WAREHOUSE=w".
// Keys are case-insensitive; unknown keys are ignored.
func ParseWarehouseConnString(s string) WarehouseConfig {
	var cfg WarehouseConfig
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok || key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "ACCOUNT":
			cfg.Account = value
		case "USER":
			cfg.User = value
		case "PASSWORD":
			cfg.Password = value
		case "DB", "DATABASE":
			if db, schema, found := strings.Cut(value, "."); found {
				cfg.Database, cfg.Schema = db, schema
			} else {
				cfg.Database = value
			}
		case "SCHEMA":
			cfg.Schema = value
		case "WAREHOUSE":
			cfg.Warehouse = value
		case "ROLE":
			cfg.Role = value
		}
	}
	return cfg
}

// Warehouse reads completed campaign rows from Snowflake.
type Warehouse struct {
	db    *sql.DB
	query string
}

// NewWarehouse wraps an open database handle.
func NewWarehouse(db *sql.DB, table string) (*Warehouse, error) {
	if table == "" {
		table = DefaultWarehouseTable
	}
	if !tableIdent.MatchString(table) {
		return nil, fmt.Errorf("invalid warehouse table name %q", table)
	}
	q := `SELECT CAMPAIGN, SEND_DATE, DELIVERED, UNIQUE_OPENS, TOTAL_OPENS, UNIQUE_CLICKS, TOTAL_CLICKS
		FROM ` + table + `
		ORDER BY SEND_DATE`
	return &Warehouse{db: db, query: q}, nil
}

// OpenWarehouse connects through the gosnowflake driver.
func OpenWarehouse(cfg WarehouseConfig) (*Warehouse, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("building snowflake dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	w, err := NewWarehouse(db, cfg.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Warehouse) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

// FetchCompleted reads every completed row.
func (w *Warehouse) FetchCompleted(ctx context.Context) ([]domain.CampaignRecord, error) {
	rows, err := w.db.QueryContext(ctx, w.query)
	if err != nil {
		return nil, fetchErr("warehouse", fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	var out []domain.CampaignRecord
	for rows.Next() {
		var name sql.NullString
		var sendDate sql.NullTime
		var delivered, uOpens, tOpens, uClicks, tClicks sql.NullInt64
		if err := rows.Scan(&name, &sendDate, &delivered, &uOpens, &tOpens, &uClicks, &tClicks); err != nil {
			return nil, fetchErr("warehouse", fmt.Errorf("scan: %w", err))
		}
		rec := domain.CampaignRecord{
			Name:         name.String,
			Delivered:    delivered.Int64,
			UniqueOpens:  uOpens.Int64,
			TotalOpens:   tOpens.Int64,
			UniqueClicks: uClicks.Int64,
			TotalClicks:  tClicks.Int64,
			Status:       domain.CampaignCompleted,
		}
		if sendDate.Valid {
			t := sendDate.Time.UTC()
			rec.SendDate = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fetchErr("warehouse", err)
	}
	return out, nil
}
