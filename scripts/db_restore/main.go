// Command db_restore replaces the configured database file with a backup
// made by db_backup. Stop the server first.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/talosdigital/tdjobs/internal/config"
)

var errNoFile = errors.New("database_path must name a file")

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	in := flag.String("in", "", "Backup file (default <database_path>.bak)")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if _, err := restore(cfg.DatabasePath, *in); err != nil {
		fmt.Fprintf(os.Stderr, "Restore error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Database restore completed.")
}

// restore overwrites dst with src, or with dst.bak when src is empty, and
// returns the backup path used.
func restore(dst, src string) (string, error) {
	if dst == "" || dst == ":memory:" {
		return "", errNoFile
	}
	if src == "" {
		src = dst + ".bak"
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return "", err
	}
	return src, dstFile.Close()
}
