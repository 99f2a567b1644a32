package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Raffle{},
		&Participant{},
		&GuildSettings{},
	); err != nil {
		return err
	}

	// At most one pending or confirmed participation per user and raffle.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeParticipationIndex + `
		ON participants (raffle_id, user_id)
		WHERE status IN ('PENDING_PAYMENT', 'PENDING_APPROVAL', 'CONFIRMED')`).Error
}

// DropAllTables removes every table of the public schema. Used to reset test databases.
func DropAllTables(db *gorm.DB) error {
	// Disable foreign key checks
	db.Exec("SET CONSTRAINTS ALL DEFERRED;")

	var tableNames []string
	if err := db.Table("information_schema.tables").
		Where("table_schema = ?", "public").
		Pluck("table_name", &tableNames).Error; err != nil {
		return err
	}

	for _, tableName := range tableNames {
		if err := db.Exec("DROP TABLE IF EXISTS " + tableName + " CASCADE").Error; err != nil {
			return err
		}
	}

	db.Exec("SET CONSTRAINTS ALL IMMEDIATE;")

	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		strings.Contains(pgErr.ConstraintName+" "+pgErr.Message, constraint)
}
