package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"github.com/poiesic/todoey/core"
)

// driverName is go-sqlite3 with the contains_fold function registered on every connection.
const driverName = "sqlite3_todoey"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("contains_fold", containsFold, true)
		},
	})
}

// containsFold exposes core.ContainsFold to SQL so every backend matches text the same way.
func containsFold(s, substr string) int {
	if core.ContainsFold(s, substr) {
		return 1
	}
	return 0
}
