//go:build !cgo

package sqlite

import _ "modernc.org/sqlite"

// driverName selects the pure-Go modernc.org/sqlite driver for CGo-less
// builds (cross-compiling, or a distroless image with no C toolchain).
// modernc.org/sqlite registers itself under "sqlite", not "sqlite3".
const driverName = "sqlite"
