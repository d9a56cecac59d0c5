package db

import "embed"

// Migrations holds the schema of the fake marketplace store.
//
//go:embed migrations/*.sql
var Migrations embed.FS
