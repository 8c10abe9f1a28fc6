// Package migrations applies the embedded Postgres and ClickHouse schemas.
package migrations

import (
	"fmt"
	"io/fs"
)

// sqlFiles lists the .sql files under dir in apply order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	files, err := fs.Glob(fsys, dir+"/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s migrations embedded", dir)
	}
	return files, nil
}
