// Creates the dub_jobs table for the postgres job store backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"voxdub/internal/config"
	pg "voxdub/internal/infra/db/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS dub_jobs (
    id                 TEXT PRIMARY KEY,
    status             TEXT NOT NULL,
    current_stage      TEXT NOT NULL DEFAULT '',
    progress           INT  NOT NULL DEFAULT 0,
    source_language    TEXT NOT NULL,
    target_language    TEXT NOT NULL,
    provider_requested TEXT NOT NULL,
    provider_used      TEXT NOT NULL DEFAULT '',
    filename           TEXT NOT NULL,
    artifact_paths     JSONB NOT NULL DEFAULT '{}'::jsonb,
    error              JSONB,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL,
    completed_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS dub_jobs_status_idx ON dub_jobs (status);
CREATE INDEX IF NOT EXISTS dub_jobs_created_at_idx ON dub_jobs (created_at);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatalf("database.url is not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("dub_jobs schema is up to date.")
}
