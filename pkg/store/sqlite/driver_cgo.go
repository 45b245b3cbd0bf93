//go:build cgo

package sqlite

import _ "github.com/mattn/go-sqlite3"

// driverName is registered by the imported driver package's init. The CGo
// build uses mattn/go-sqlite3, matching pkg/evidence/storage/sqlite.go's
// choice for the primary embedded backend.
const driverName = "sqlite3"
