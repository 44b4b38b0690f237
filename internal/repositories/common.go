package repositories

import (
	"database/sql"
	"errors"

	intconfig "cargobooking/internal/config"
	intdb "cargobooking/internal/db"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// pick returns q when set, otherwise the repository DB, otherwise the shared pool.
func pick(q intdb.Querier, own *sql.DB) intdb.Querier {
	if q != nil {
		return q
	}
	if own != nil {
		return own
	}
	return intconfig.DB
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
