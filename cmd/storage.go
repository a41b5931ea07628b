package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"instrument-tracker/internal/storage"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the configured storage backends",
}

var storagePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that storage answers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := svc.Ping(ctx); err != nil {
			fail("Storage is unavailable", err)
		}
		fmt.Println("Storage OK")
	},
}

type versioned interface {
	GetSchemaVersion(ctx context.Context) (int, error)
	Close() error
}

var storageVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the schema version of each database backend",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		backends := map[string]func() (versioned, error){}
		if cfg.Storage.Remote != nil {
			backends["pgx"] = func() (versioned, error) { return storage.NewPostgresProvider(&cfg.Storage) }
		}
		if cfg.Storage.Local != nil {
			backends["sqlite3"] = func() (versioned, error) { return storage.NewSQLiteProvider(&cfg.Storage) }
		}
		if len(backends) == 0 {
			fmt.Println("No database configured, instruments are kept in memory.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DRIVER\tCURRENT\tLATEST")
		for _, driver := range []string{"pgx", "sqlite3"} {
			open, ok := backends[driver]
			if !ok {
				continue
			}
			latest, err := storage.NewMigrationRunner(driver).GetLatestMigrationVersion()
			if err != nil {
				fail("Error reading migrations", err, "driver", driver)
			}

			current := "unavailable"
			if p, err := open(); err == nil {
				if v, err := p.GetSchemaVersion(ctx); err == nil {
					current = fmt.Sprint(v)
				}
				p.Close()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\n", driver, current, latest)
		}
		w.Flush()
	},
}

func init() {
	storageCmd.AddCommand(storagePingCmd, storageVersionCmd)
	rootCmd.AddCommand(storageCmd)
}
