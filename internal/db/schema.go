package db

// Schema is the DDL for the run ledger.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    mode        TEXT NOT NULL,
    grouping    TEXT NOT NULL,
    items       INTEGER DEFAULT 0,
    groups      INTEGER DEFAULT 0,
    sent_to     TEXT,
    status      TEXT NOT NULL,
    error       TEXT,
    started_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_mode ON runs(mode, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
`
