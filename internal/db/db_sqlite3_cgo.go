//go:build cgo && sqlite3_cgo

package db

// Native driver; opt in with -tags sqlite3_cgo.
import (
	_ "github.com/mattn/go-sqlite3"
)

const driverID = "mattn/go-sqlite3"
const driverName = "sqlite3"
