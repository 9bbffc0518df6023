package db

import (
	"database/sql"
)

func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// NewSQLStore wires the SQL repositories into a Store that closes the
// underlying connection pool.
func NewSQLStore(conn *sql.DB) *Store {
	return NewStore(
		NewUserRepository(conn),
		NewTaskRepository(conn),
		NewCredentialRepository(conn),
		conn.Close,
	)
}
