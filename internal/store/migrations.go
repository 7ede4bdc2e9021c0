package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create users and recommendations",
		SQL: `
			CREATE TABLE users (
				id          TEXT PRIMARY KEY,
				username    TEXT NOT NULL DEFAULT '',
				first_name  TEXT NOT NULL DEFAULT '',
				last_name   TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE recommendations (
				id              TEXT PRIMARY KEY,
				user_id         TEXT NOT NULL REFERENCES users(id),
				genres          TEXT NOT NULL,
				years           TEXT NOT NULL,
				keywords        TEXT NOT NULL DEFAULT '',
				model_response  TEXT NOT NULL,
				film1           TEXT,
				film2           TEXT,
				film3           TEXT,
				requested_at    TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_recommendations_user ON recommendations (user_id, requested_at);
		`,
	},
}
