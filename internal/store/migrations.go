package store

const schema = `
CREATE TABLE IF NOT EXISTS source_cache (
    source     TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_log (
    topic_key    TEXT PRIMARY KEY,
    launch_score INTEGER NOT NULL DEFAULT 0,
    alerted_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_alert_log_alerted_at ON alert_log(alerted_at);
`
