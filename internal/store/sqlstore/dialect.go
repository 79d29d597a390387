package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // register "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // register "pgx"
	_ "modernc.org/sqlite"             // register "sqlite", pure go
)

// dialect captures the few statements that differ between engines.
type dialect struct {
	name      string
	driver    string
	schema    []string
	forUpdate string
	numbered  bool // $1, $2 placeholders instead of ?
}

var dialects = map[string]dialect{
	"sqlite": {
		name:   "sqlite",
		driver: "sqlite",
		schema: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA busy_timeout = 5000",
			`CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				fields TEXT NOT NULL,
				PRIMARY KEY (collection, id)
			)`,
		},
	},
	"postgres": {
		name:      "postgres",
		driver:    "pgx",
		forUpdate: " FOR UPDATE",
		numbered:  true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id TEXT NOT NULL,
				fields TEXT NOT NULL,
				PRIMARY KEY (collection, id)
			)`,
		},
	},
	"mysql": {
		name:      "mysql",
		driver:    "mysql",
		forUpdate: " FOR UPDATE",
		schema: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				collection VARCHAR(128) NOT NULL,
				id VARCHAR(64) NOT NULL,
				fields LONGTEXT NOT NULL,
				PRIMARY KEY (collection, id)
			)`,
		},
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unknown sql dialect %q", name)
	}
	return d, nil
}

// rebind rewrites ? placeholders for engines that number them.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
