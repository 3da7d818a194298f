package journal

const Schema = `
CREATE TABLE IF NOT EXISTS history (
	seq INTEGER PRIMARY KEY,
	day INTEGER NOT NULL,
	description TEXT NOT NULL,
	recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_day ON history(day);
`
