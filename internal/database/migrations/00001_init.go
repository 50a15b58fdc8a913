// Package migrations holds the goose schema migrations. Each migration
// drives GORM's migrator inside the goose transaction.
package migrations

import (
	"context"
	"database/sql"

	"github.com/deviljitu1/forever-flame-companion/internal/models"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// All returns the registered migrations in version order.
func All() []*goose.Migration {
	return []*goose.Migration{
		goose.NewGoMigration(1,
			&goose.GoFunc{RunTx: upInit},
			&goose.GoFunc{RunTx: downInit},
		),
	}
}

func open(tx *sql.Tx) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := open(tx)
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).AutoMigrate(models.All()...)
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := open(tx)
	if err != nil {
		return err
	}
	tables := models.All()
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	return gormDB.WithContext(ctx).Migrator().DropTable(tables...)
}
