package journal

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS submissions (
	id          TEXT PRIMARY KEY,
	cycle_id    TEXT NOT NULL,
	sender      TEXT NOT NULL,
	subject     TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT 'none',
	item_id     TEXT NOT NULL DEFAULT '',
	item_url    TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	success     INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_cycle_id ON submissions(cycle_id);
CREATE INDEX IF NOT EXISTS idx_submissions_sender ON submissions(sender);
`,
	},
}
