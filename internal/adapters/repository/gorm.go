package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/model"
)

// snapshotRow is the SQL shape of a snapshot.
type snapshotRow struct {
	DocID      string       `gorm:"primaryKey;size:32"`
	EntityID   int64        `gorm:"not null;index:idx_snapshots_entity_ts,priority:1"`
	Timestamp  time.Time    `gorm:"not null;index:idx_snapshots_entity_ts,priority:2;index:idx_snapshots_ts"`
	Position   int          `gorm:"not null"`
	Stars      int64        `gorm:"not null"`
	OpenIssues int64        `gorm:"not null"`
	Forks      int64        `gorm:"not null"`
	Entity     model.Entity `gorm:"serializer:json;type:text"`
}

func (snapshotRow) TableName() string { return "snapshots" }

// aggregateRow is the SQL shape of an aggregate. Position is duplicated out
// of the record so reads can order without decoding.
type aggregateRow struct {
	EntityID  int64                 `gorm:"primaryKey;autoIncrement:false"`
	Position  int                   `gorm:"not null;index"`
	Record    model.AggregateRecord `gorm:"serializer:json;type:text"`
	UpdatedAt time.Time
}

func (aggregateRow) TableName() string { return "aggregates" }

func toSnapshotRow(s model.Snapshot) snapshotRow {
	return snapshotRow{
		DocID:      s.DocID,
		EntityID:   s.EntityID,
		Timestamp:  s.Timestamp.UTC(),
		Position:   s.Position,
		Stars:      s.Stars,
		OpenIssues: s.OpenIssues,
		Forks:      s.Forks,
		Entity:     s.Entity,
	}
}

func (r snapshotRow) model() model.Snapshot {
	return model.Snapshot{
		DocID:      r.DocID,
		EntityID:   r.EntityID,
		Timestamp:  r.Timestamp.UTC(),
		Position:   r.Position,
		Stars:      r.Stars,
		OpenIssues: r.OpenIssues,
		Forks:      r.Forks,
		Entity:     r.Entity,
	}
}

// GormConfig selects and tunes the SQL backend.
type GormConfig struct {
	Driver        string // "sqlite" or "mysql"
	SQLitePath    string
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	MaxOpenConns  int
	MaxIdleConns  int
	ConnLifetime  time.Duration
}

// MySQLDSN formats the connection string for the mysql driver.
func (c GormConfig) MySQLDSN() string {
	dsn := mysqlDriver.Config{
		User:                 c.MySQLUser,
		Passwd:               c.MySQLPassword,
		DBName:               c.MySQLDatabase,
		Addr:                 net.JoinHostPort(c.MySQLHost, strconv.Itoa(c.MySQLPort)),
		Net:                  "tcp",
		ParseTime:            true,
		Loc:                  time.UTC,
		AllowNativePasswords: true,
	}
	return dsn.FormatDSN()
}

// GormStore is a Store on top of gorm. Each Commit is one transaction.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects, tunes the pool and migrates the schema.
func OpenGorm(ctx context.Context, cfg GormConfig) (*GormStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN())
	default:
		return nil, fmt.Errorf("unknown gorm driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	var sqlDB *sql.DB
	sqlDB, err = db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnLifetime)
	}

	return NewGormStore(ctx, db)
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&snapshotRow{}, &aggregateRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Commit applies ops in one transaction. Creates on an existing key fail the
// whole chunk.
func (s *GormStore) Commit(ctx context.Context, ops []batch.Op) error {
	if err := checkSize(ops); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if err := applyOp(tx, op); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyOp(tx *gorm.DB, op batch.Op) error {
	switch op.Path.Collection {
	case model.CollectionSnapshots:
		switch op.Kind {
		case batch.OpCreate:
			snap, err := snapshotValue(op)
			if err != nil {
				return err
			}
			row := toSnapshotRow(snap)
			if err := tx.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: snapshot %s", ErrAlreadyExists, snap.DocID)
				}
				return fmt.Errorf("create snapshot %s: %w", snap.DocID, err)
			}
		case batch.OpSet:
			snap, err := snapshotValue(op)
			if err != nil {
				return err
			}
			row := toSnapshotRow(snap)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("set snapshot %s: %w", snap.DocID, err)
			}
		case batch.OpDelete:
			if err := tx.Where("doc_id = ?", op.Path.ID).Delete(&snapshotRow{}).Error; err != nil {
				return fmt.Errorf("delete snapshot %s: %w", op.Path.ID, err)
			}
		default:
			return fmt.Errorf("%w: kind %q", ErrInvalidOp, op.Kind)
		}
	case model.CollectionAggregates:
		id, err := parseID(op, op.Path.ID)
		if err != nil {
			return err
		}
		switch op.Kind {
		case batch.OpCreate, batch.OpSet:
			agg, err := aggregateValue(op)
			if err != nil {
				return err
			}
			agg.EntityID = id
			row := aggregateRow{EntityID: id, Position: agg.Latest.Position, Record: agg}
			q := tx
			if op.Kind == batch.OpSet {
				q = tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "entity_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"position", "record", "updated_at"}),
				})
			}
			if err := q.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("%w: aggregate %d", ErrAlreadyExists, id)
				}
				return fmt.Errorf("%s aggregate %d: %w", op.Kind, id, err)
			}
		case batch.OpDelete:
			if err := tx.Delete(&aggregateRow{}, id).Error; err != nil {
				return fmt.Errorf("delete aggregate %d: %w", id, err)
			}
		default:
			return fmt.Errorf("%w: kind %q", ErrInvalidOp, op.Kind)
		}
	default:
		return fmt.Errorf("%w: collection %q", ErrInvalidOp, op.Path.Collection)
	}
	return nil
}

// FirstSnapshotInRange returns the earliest snapshot in [from, to).
func (s *GormStore) FirstSnapshotInRange(ctx context.Context, entityID int64, from, to time.Time) (model.Snapshot, bool, error) {
	var rows []snapshotRow
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND timestamp >= ? AND timestamp < ?", entityID, from.UTC(), to.UTC()).
		Order("timestamp ASC").Order("doc_id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("find snapshot of %d: %w", entityID, err)
	}
	if len(rows) == 0 {
		return model.Snapshot{}, false, nil
	}
	return rows[0].model(), true, nil
}

// SnapshotsBefore returns at most limit snapshots older than cutoff, oldest first.
func (s *GormStore) SnapshotsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Snapshot, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	var rows []snapshotRow
	err := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff.UTC()).
		Order("timestamp ASC").Order("doc_id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshots before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	out := make([]model.Snapshot, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

// Aggregates returns every aggregate ordered by latest position.
func (s *GormStore) Aggregates(ctx context.Context) ([]model.AggregateRecord, error) {
	var rows []aggregateRow
	if err := s.db.WithContext(ctx).Order("position ASC").Order("entity_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	out := make([]model.AggregateRecord, len(rows))
	for i, r := range rows {
		out[i] = r.Record
		out[i].EntityID = r.EntityID
	}
	return out, nil
}

// AggregateIDs returns the IDs with an aggregate, ascending.
func (s *GormStore) AggregateIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&aggregateRow{}).Order("entity_id ASC").Pluck("entity_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list aggregate ids: %w", err)
	}
	return ids, nil
}

// Aggregate returns one aggregate or ErrNotFound.
func (s *GormStore) Aggregate(ctx context.Context, entityID int64) (model.AggregateRecord, error) {
	var row aggregateRow
	err := s.db.WithContext(ctx).First(&row, entityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.AggregateRecord{}, fmt.Errorf("%w: aggregate %d", ErrNotFound, entityID)
	}
	if err != nil {
		return model.AggregateRecord{}, fmt.Errorf("get aggregate %d: %w", entityID, err)
	}
	row.Record.EntityID = row.EntityID
	return row.Record, nil
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
