package sqlite

// Schema creates the normalized user tables and the analysis tables.
// Coordinates and dates are stored as text so malformed upstream values
// survive a round trip unchanged.
const Schema = `
CREATE TABLE IF NOT EXISTS addresses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city TEXT,
    street_name TEXT,
    street_address TEXT,
    zip_code TEXT,
    state TEXT,
    country TEXT,
    latitude TEXT,
    longitude TEXT
);

CREATE TABLE IF NOT EXISTS employment (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT,
    key_skill TEXT
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    plan TEXT,
    status TEXT,
    payment_method TEXT,
    term TEXT
);

CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid TEXT NOT NULL UNIQUE,
    first_name TEXT,
    last_name TEXT,
    username TEXT,
    email TEXT,
    avatar TEXT,
    gender TEXT,
    phone_number TEXT,
    date_of_birth TEXT,
    address_id INTEGER REFERENCES addresses(id),
    employment_id INTEGER REFERENCES employment(id),
    subscription_id INTEGER REFERENCES subscriptions(id)
);

CREATE TABLE IF NOT EXISTS analysis_runs (
    run_id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    strong_threshold INTEGER NOT NULL,
    pairs_considered INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pair_evaluations (
    run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
    uid1 TEXT NOT NULL,
    uid2 TEXT NOT NULL,
    personal_points INTEGER NOT NULL,
    personal_evidence TEXT NOT NULL DEFAULT '',
    address_points INTEGER NOT NULL,
    address_evidence TEXT NOT NULL DEFAULT '',
    employment_points INTEGER NOT NULL,
    employment_evidence TEXT NOT NULL DEFAULT '',
    subscription_points INTEGER NOT NULL,
    subscription_evidence TEXT NOT NULL DEFAULT '',
    total_points INTEGER NOT NULL,
    tier TEXT NOT NULL,
    PRIMARY KEY (run_id, uid1, uid2)
);

CREATE TABLE IF NOT EXISTS user_groups (
    run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
    tier TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    uid TEXT NOT NULL,
    PRIMARY KEY (run_id, tier, ordinal, uid)
);

CREATE INDEX IF NOT EXISTS idx_pair_evaluations_tier ON pair_evaluations(run_id, tier);
`
