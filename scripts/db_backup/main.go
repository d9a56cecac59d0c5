// Command db_backup copies the configured database file next to itself with
// a .bak suffix, or to -out.
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

var errInMemory = errors.New("an in-memory database has nothing to back up")

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	out := flag.String("out", "", "Backup file (default <database_path>.bak)")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	dst, err := backup(cfg.DatabasePath, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Backup error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Database backed up to %s.\n", dst)
}

// backup copies src to dst, or to src.bak when dst is empty, and returns the
// path written.
func backup(src, dst string) (string, error) {
	if src == "" || src == ":memory:" {
		return "", errInMemory
	}
	if dst == "" {
		dst = src + ".bak"
	}
	if err := copyFile(dst, src); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(dst, src string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}
