package database

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const backupStampLayout = "20060102_150405"

func (d *Database) backupDir() string {
	return filepath.Join(filepath.Dir(d.path), "backups")
}

// Backup writes a compacted copy of the database (VACUUM INTO) next to
// the live file and compresses it. Runs from the nightly maintenance
// task and before every schema migration.
func (d *Database) Backup(ctx context.Context) error {
	dir := d.backupDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	stamp := time.Now().Format(backupStampLayout)
	raw := filepath.Join(dir, stamp+"_homebalance.db")
	if _, err := d.write.ExecContext(ctx, "VACUUM INTO ?", raw); err != nil {
		return fmt.Errorf("vacuuming database into %q: %w", raw, err)
	}

	zipPath := raw + ".zip"
	if err := compressFile(raw, zipPath, filepath.Base(d.path)); err != nil {
		return err
	}

	if err := os.Remove(raw); err != nil {
		d.logger.Warn("could not remove uncompressed backup", slog.Any("error", err))
	}

	d.logger.Info("database backup complete", slog.String("filename", zipPath))
	return nil
}

func compressFile(src, dest, entryName string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup for compression: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create zip header: %w", err)
	}
	header.Name = entryName
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip entry: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write database to zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip file: %w", err)
	}

	return nil
}

// PurgeBackups deletes backups older than the retention window, based
// on the timestamp encoded in the file name.
func (d *Database) PurgeBackups(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}

	dir := d.backupDir()
	d.logger.Debug("purging old backups", slog.String("dir", dir))

	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	for _, file := range files {
		name := file.Name()
		if len(name) < len(backupStampLayout) || !strings.Contains(name, "_homebalance.db") {
			continue
		}
		stamp, err := time.Parse(backupStampLayout, name[:len(backupStampLayout)])
		if err != nil {
			continue
		}
		if stamp.Before(cutoff) {
			path := filepath.Join(dir, name)
			d.logger.Debug("deleting old backup", slog.String("path", path))
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove old backup %q: %w", path, err)
			}
		}
	}

	return nil
}
