package database

import (
	"context"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/juror/core"
	inmemdb "github.com/trezcool/juror/storage/database/inmem"
	sqlxrepos "github.com/trezcool/juror/storage/database/sqlx"
	"github.com/trezcool/juror/storage/snapshot"
)

// Engines
const (
	EngineMemory   = "memory"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know
	sqlx.BindDriver(EngineSQLite, sqlx.QUESTION)
}

// Open connects to the configured SQL engine and waits for it to be ready.
func Open(conf *core.Config) (*sqlx.DB, error) {
	engine := conf.Database.Engine
	if engine != EngineSQLite && engine != EnginePostgres {
		return nil, errors.Errorf("%q is not an SQL engine", engine)
	}

	db, err := sqlx.Open(engine, conf.Database.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if engine == EngineSQLite {
		// a single connection: in-memory databases are per connection, and sqlite serializes writers anyway
		db.SetMaxOpenConns(1)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if engine == EngineSQLite {
		if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "enabling foreign keys")
		}
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Run executes a goose command (up, down, status, redo, version...) against the embedded migrations.
func Run(db *sqlx.DB, command string, args ...string) error {
	dialect := "postgres"
	if db.DriverName() == EngineSQLite {
		dialect = "sqlite3"
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.Run(command, db.DB, "migrations", args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

func Migrate(db *sqlx.DB) error {
	return Run(db, "up")
}

// Store bundles the repositories of the configured engine.
type Store struct {
	snapshot.Stores
	SQL *sqlx.DB // nil for the memory engine

	mem *inmemdb.DB
}

// OpenStore opens the configured engine. SQL databases are migrated up.
// The memory engine persists to Database.Path when it is set.
func OpenStore(conf *core.Config) (*Store, error) {
	if conf.Database.Engine == EngineMemory {
		var (
			mem *inmemdb.DB
			err error
		)
		if conf.Database.Path != "" {
			mem, err = inmemdb.OpenFile(conf.Database.Path)
		} else {
			mem, err = inmemdb.Open()
		}
		if err != nil {
			return nil, err
		}
		return &Store{
			Stores: snapshot.Stores{
				Users:        inmemdb.NewUserRepository(mem),
				Projects:     inmemdb.NewProjectRepository(mem),
				Deliverables: inmemdb.NewDeliverableRepository(mem),
				Grades:       inmemdb.NewGradeRepository(mem),
			},
			mem: mem,
		}, nil
	}

	db, err := Open(conf)
	if err != nil {
		return nil, err
	}
	if err = Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		Stores: snapshot.Stores{
			Users:        sqlxrepos.NewUserRepository(db),
			Projects:     sqlxrepos.NewProjectRepository(db),
			Deliverables: sqlxrepos.NewDeliverableRepository(db),
			Grades:       sqlxrepos.NewGradeRepository(db),
		},
		SQL: db,
	}, nil
}

// Reset deletes every record.
func (s *Store) Reset(ctx context.Context) error {
	if s.mem != nil {
		return s.mem.Reset()
	}
	return sqlxrepos.Truncate(ctx, s.SQL)
}

func (s *Store) Close() error {
	if s.SQL != nil {
		return s.SQL.Close()
	}
	return nil
}
