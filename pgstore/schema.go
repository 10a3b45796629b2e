package pgstore

// Schema is the DDL for the store's tables. Apply it once at deploy
// time, or call Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS steering_sessions (
    app        TEXT        NOT NULL,
    user_id    TEXT        NOT NULL,
    session_id TEXT        NOT NULL,
    state      JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (app, user_id, session_id)
);

CREATE TABLE IF NOT EXISTS steering_events (
    id         TEXT        NOT NULL,
    app        TEXT        NOT NULL,
    user_id    TEXT        NOT NULL,
    session_id TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    role       TEXT        NOT NULL,
    blocks     JSONB       NOT NULL DEFAULT '[]'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (app, user_id, session_id, seq),
    FOREIGN KEY (app, user_id, session_id)
        REFERENCES steering_sessions (app, user_id, session_id)
        ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_steering_sessions_listing
    ON steering_sessions (app, user_id, updated_at DESC);
`
