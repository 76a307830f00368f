// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, together with the embedded goose
// migrations that create their schema.
//
// Connections are opened through database/sql with the pgx stdlib driver.
// Driver errors are translated to store sentinels by MapError.
package postgres
