// Package all registers every storage backend with the storage registry.
package all

import (
	_ "salesmart/internal/storage/duckdb"
	_ "salesmart/internal/storage/mssql"
	_ "salesmart/internal/storage/mysql"
	_ "salesmart/internal/storage/postgres"
	_ "salesmart/internal/storage/sqlite"
)
