package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/vsinha/bomalloc/pkg/domain/entities"
	"github.com/vsinha/bomalloc/pkg/domain/repositories"
)

// Table names, also used as the imported markers
const (
	TableCatalog      = "catalog"
	TableAnnotations  = "annotations"
	TableAccessories  = "accessories"
	TableMainSwitches = "main_switches"
	TableRates        = "rates"
	TableStock        = "stock"
)

// Store keeps reference tables and stock in a SQLite database. Quantities and money are
// stored as decimal text so values round-trip exactly.
type Store struct {
	db *sql.DB
}

var (
	_ repositories.ReferenceRepository = (*Store)(nil)
	_ repositories.StockRepository     = (*Store)(nil)
)

// Open opens or creates the reference database at path. The rollback journal is kept
// so OpenReadOnly never needs to create WAL side files.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=DELETE"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing reference database without modifying it
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open reference database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open reference database %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS imported (
	name TEXT PRIMARY KEY,
	imported_at TEXT NOT NULL,
	row_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS catalog (
	position INTEGER PRIMARY KEY,
	catalog_no TEXT NOT NULL,
	display_name TEXT NOT NULL,
	description TEXT,
	manufacturer TEXT,
	supplier_no TEXT,
	unit_cost TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
	position INTEGER PRIMARY KEY,
	component_name TEXT NOT NULL,
	quantity TEXT NOT NULL,
	comment TEXT
);

CREATE TABLE IF NOT EXISTS accessories (
	parent_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	parent TEXT NOT NULL,
	label TEXT NOT NULL,
	quantity TEXT NOT NULL,
	manufacturer TEXT,
	PRIMARY KEY(parent_position, position)
);

CREATE TABLE IF NOT EXISTS main_switches (
	switch_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	switch TEXT NOT NULL,
	accessory TEXT,
	PRIMARY KEY(switch_position, position)
);

CREATE TABLE IF NOT EXISTS rates (
	position INTEGER PRIMARY KEY,
	panel_type TEXT NOT NULL,
	hours_tt TEXT NOT NULL,
	hours_tn_s TEXT NOT NULL,
	hours_tn_c_s TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stock (
	position INTEGER PRIMARY KEY,
	catalog_no TEXT NOT NULL,
	bin_id TEXT NOT NULL,
	quantity TEXT NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// replaceTable swaps the contents of table for rows in a single transaction and marks
// the table as imported
func (s *Store) replaceTable(ctx context.Context, table, insert string, rows [][]interface{}, extra func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s import: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare %s insert: %w", table, err)
		}
		defer stmt.Close()
		for i, args := range rows {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert %s row %d: %w", table, i+1, err)
			}
		}
	}

	if extra != nil {
		if err := extra(tx); err != nil {
			return fmt.Errorf("failed to update %s settings: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO imported (name, imported_at, row_count) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET imported_at=excluded.imported_at, row_count=excluded.row_count`,
		table, time.Now().UTC().Format(time.RFC3339), len(rows)); err != nil {
		return fmt.Errorf("failed to record %s import: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s import: %w", table, err)
	}
	return nil
}

// SaveCatalog replaces the catalog table
func (s *Store) SaveCatalog(ctx context.Context, entries []entities.CatalogEntry) error {
	rows := make([][]interface{}, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []interface{}{i, e.CatalogNo, e.DisplayName, e.Description, e.Manufacturer, e.SupplierNo, e.UnitCost.String()})
	}
	return s.replaceTable(ctx, TableCatalog,
		`INSERT INTO catalog (position, catalog_no, display_name, description, manufacturer, supplier_no, unit_cost) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rows, nil)
}

// SaveAnnotations replaces the annotations table
func (s *Store) SaveAnnotations(ctx context.Context, annotations []entities.Annotation) error {
	rows := make([][]interface{}, 0, len(annotations))
	for i, a := range annotations {
		rows = append(rows, []interface{}{i, a.ComponentName, a.Quantity.String(), a.Comment})
	}
	return s.replaceTable(ctx, TableAnnotations,
		`INSERT INTO annotations (position, component_name, quantity, comment) VALUES (?, ?, ?, ?)`,
		rows, nil)
}

// SaveAccessories replaces the accessories table
func (s *Store) SaveAccessories(ctx context.Context, rules []entities.AccessoryRule) error {
	var rows [][]interface{}
	for p, rule := range rules {
		for i, acc := range rule.Accessories {
			rows = append(rows, []interface{}{p, i, rule.ParentLabel, acc.Label, acc.Quantity.String(), acc.Manufacturer})
		}
	}
	return s.replaceTable(ctx, TableAccessories,
		`INSERT INTO accessories (parent_position, position, parent, label, quantity, manufacturer) VALUES (?, ?, ?, ?, ?, ?)`,
		rows, nil)
}

// SaveMainSwitches replaces the main switch table. A switch without accessories is kept
// as a single row with a NULL accessory.
func (s *Store) SaveMainSwitches(ctx context.Context, rules []entities.MainSwitchRule) error {
	var rows [][]interface{}
	for p, rule := range rules {
		if len(rule.Accessories) == 0 {
			rows = append(rows, []interface{}{p, 0, rule.Switch, nil})
			continue
		}
		for i, acc := range rule.Accessories {
			rows = append(rows, []interface{}{p, i, rule.Switch, acc})
		}
	}
	return s.replaceTable(ctx, TableMainSwitches,
		`INSERT INTO main_switches (switch_position, position, switch, accessory) VALUES (?, ?, ?, ?)`,
		rows, nil)
}

// SaveRateTable replaces the rate rows and the hourly rate
func (s *Store) SaveRateTable(ctx context.Context, table *entities.RateTable) error {
	if table == nil {
		table = &entities.RateTable{}
	}
	rows := make([][]interface{}, 0, len(table.Rows))
	for i, r := range table.Rows {
		rows = append(rows, []interface{}{i, r.PanelType, r.HoursTT.String(), r.HoursTNS.String(), r.HoursTNCS.String()})
	}
	return s.replaceTable(ctx, TableRates,
		`INSERT INTO rates (position, panel_type, hours_tt, hours_tn_s, hours_tn_c_s) VALUES (?, ?, ?, ?, ?)`,
		rows, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
INSERT INTO settings (key, value) VALUES ('hourly_rate', ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value`, table.HourlyRate.String())
			return err
		})
}

// SaveStock replaces the stock table
func (s *Store) SaveStock(ctx context.Context, records []entities.StockRecord) error {
	rows := make([][]interface{}, 0, len(records))
	for i, r := range records {
		rows = append(rows, []interface{}{i, r.CatalogNo, r.BinID, r.AvailableQty.String()})
	}
	return s.replaceTable(ctx, TableStock,
		`INSERT INTO stock (position, catalog_no, bin_id, quantity) VALUES (?, ?, ?, ?)`,
		rows, nil)
}

// imported reports whether table has been written by a Save method
func (s *Store) imported(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='imported'`).Scan(&n)
	if err != nil || n == 0 {
		return false, err
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imported WHERE name=?`, table).Scan(&n)
	return n > 0, err
}

func (s *Store) requireTable(ctx context.Context, table string) error {
	ok, err := s.imported(ctx, table)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if !ok {
		return fmt.Errorf("%w: table %s", entities.ErrMissingReference, table)
	}
	return nil
}

// LoadCatalog reads the catalog in import order
func (s *Store) LoadCatalog(ctx context.Context) ([]entities.CatalogEntry, error) {
	if err := s.requireTable(ctx, TableCatalog); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_no, display_name, description, manufacturer, supplier_no, unit_cost FROM catalog ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entities.CatalogEntry
	for rows.Next() {
		var catalogNo, displayName, cost string
		var description, manufacturer, supplierNo sql.NullString
		if err := rows.Scan(&catalogNo, &displayName, &description, &manufacturer, &supplierNo, &cost); err != nil {
			return nil, err
		}
		unitCost, err := decimal.NewFromString(cost)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: invalid unit cost %q: %w", catalogNo, cost, err)
		}
		entry, err := entities.NewCatalogEntry(catalogNo, displayName, description.String, manufacturer.String, supplierNo.String, unitCost)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", catalogNo, err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// LoadAnnotations reads the annotations in import order
func (s *Store) LoadAnnotations(ctx context.Context) ([]entities.Annotation, error) {
	if err := s.requireTable(ctx, TableAnnotations); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT component_name, quantity, comment FROM annotations ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var annotations []entities.Annotation
	for rows.Next() {
		var name, qty string
		var comment sql.NullString
		if err := rows.Scan(&name, &qty, &comment); err != nil {
			return nil, err
		}
		q, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("annotation %s: invalid quantity %q: %w", name, qty, err)
		}
		annotations = append(annotations, entities.Annotation{ComponentName: name, Quantity: q, Comment: comment.String})
	}
	return annotations, rows.Err()
}

// LoadAccessories reads the accessory rules, empty when never imported
func (s *Store) LoadAccessories(ctx context.Context) ([]entities.AccessoryRule, error) {
	if ok, err := s.imported(ctx, TableAccessories); err != nil || !ok {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT parent_position, parent, label, quantity, manufacturer FROM accessories ORDER BY parent_position, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []entities.AccessoryRule
	last := -1
	for rows.Next() {
		var pos int
		var parent, label, qty string
		var manufacturer sql.NullString
		if err := rows.Scan(&pos, &parent, &label, &qty, &manufacturer); err != nil {
			return nil, err
		}
		q, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("accessory %s of %s: invalid quantity %q: %w", label, parent, qty, err)
		}
		if pos != last {
			rules = append(rules, entities.AccessoryRule{ParentLabel: parent})
			last = pos
		}
		rule := &rules[len(rules)-1]
		rule.Accessories = append(rule.Accessories, entities.AccessorySpec{Label: label, Quantity: q, Manufacturer: manufacturer.String})
	}
	return rules, rows.Err()
}

// LoadMainSwitches reads the main switch rules, empty when never imported
func (s *Store) LoadMainSwitches(ctx context.Context) ([]entities.MainSwitchRule, error) {
	if ok, err := s.imported(ctx, TableMainSwitches); err != nil || !ok {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT switch_position, switch, accessory FROM main_switches ORDER BY switch_position, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []entities.MainSwitchRule
	last := -1
	for rows.Next() {
		var pos int
		var name string
		var acc sql.NullString
		if err := rows.Scan(&pos, &name, &acc); err != nil {
			return nil, err
		}
		if pos != last {
			rules = append(rules, entities.MainSwitchRule{Switch: name})
			last = pos
		}
		if acc.Valid {
			rule := &rules[len(rules)-1]
			rule.Accessories = append(rule.Accessories, acc.String)
		}
	}
	return rules, rows.Err()
}

// LoadRateTable reads the rate rows and hourly rate, empty when never imported
func (s *Store) LoadRateTable(ctx context.Context) (*entities.RateTable, error) {
	table := &entities.RateTable{}
	if ok, err := s.imported(ctx, TableRates); err != nil || !ok {
		return table, err
	}

	var rate string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key='hourly_rate'`).Scan(&rate)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		if table.HourlyRate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("invalid hourly rate %q: %w", rate, err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT panel_type, hours_tt, hours_tn_s, hours_tn_c_s FROM rates ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var panel string
		var hours [3]string
		if err := rows.Scan(&panel, &hours[0], &hours[1], &hours[2]); err != nil {
			return nil, err
		}
		row := entities.RateRow{PanelType: panel}
		for i, target := range []*decimal.Decimal{&row.HoursTT, &row.HoursTNS, &row.HoursTNCS} {
			if *target, err = decimal.NewFromString(hours[i]); err != nil {
				return nil, fmt.Errorf("rates %s: invalid hours %q: %w", panel, hours[i], err)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, rows.Err()
}

// LoadStock reads the stock extract in import order
func (s *Store) LoadStock(ctx context.Context) ([]entities.StockRecord, error) {
	if err := s.requireTable(ctx, TableStock); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_no, bin_id, quantity FROM stock ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []entities.StockRecord
	for rows.Next() {
		var catalogNo, binID, qty string
		if err := rows.Scan(&catalogNo, &binID, &qty); err != nil {
			return nil, err
		}
		q, err := decimal.NewFromString(qty)
		if err != nil {
			return nil, fmt.Errorf("stock %s/%s: invalid quantity %q: %w", catalogNo, binID, qty, err)
		}
		record, err := entities.NewStockRecord(catalogNo, binID, q)
		if err != nil {
			return nil, fmt.Errorf("stock %s/%s: %w", catalogNo, binID, err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}
