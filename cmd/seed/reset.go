package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables cleared by -reset, children first. Reference data survives unless withLocations is set.
var (
	dataTables     = []string{"orders", "shippers", "otps", "users"}
	locationTables = []string{"cities", "states"}
)

// confirm asks for a literal "yes" on in.
func confirm(in io.Reader, out io.Writer, tables []string) bool {
	fmt.Fprintf(out, "This will DELETE ALL ROWS from: %s\n", strings.Join(tables, ", "))
	fmt.Fprint(out, "Type 'yes' to confirm: ")

	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func resetTables(withLocations bool) []string {
	tables := append([]string{}, dataTables...)
	if withLocations {
		tables = append(tables, locationTables...)
	}
	return tables
}

// reset truncates tables in a single transaction.
func reset(ctx context.Context, pool *pgxpool.Pool, tables []string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		quoted := make([]string, len(tables))
		for i, t := range tables {
			quoted[i] = pgx.Identifier{t}.Sanitize()
		}
		_, err := tx.Exec(ctx, "TRUNCATE "+strings.Join(quoted, ", ")+" CASCADE")
		return err
	})
}
