package storage

// Schema holds the latest bank record in a single row and one row per
// customer, both as JSON documents.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	day INTEGER NOT NULL,
	saved_at DATETIME NOT NULL,
	bank TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY,
	record TEXT NOT NULL
);
`
