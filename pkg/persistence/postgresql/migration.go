package postgresql

// Numbered schema migrations consumed by sqlbase.MigrationManager.
var migrations = map[int]string{
	1: `
		CREATE TABLE route_models (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			steps JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE routes (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			route_model_id TEXT NOT NULL,
			creator_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX idx_routes_document ON routes (document_id);
		CREATE INDEX idx_routes_model ON routes (route_model_id);

		CREATE TABLE route_steps (
			id TEXT PRIMARY KEY,
			route_id TEXT NOT NULL REFERENCES routes (id) ON DELETE CASCADE,
			step_index INT NOT NULL,
			name TEXT NOT NULL,
			step_type TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			actions JSONB,
			end_date TIMESTAMPTZ,
			outcome TEXT,
			comment TEXT NOT NULL DEFAULT '',
			actor_id TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX idx_route_steps_route ON route_steps (route_id);

		CREATE TABLE acls (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			perm TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			origin TEXT NOT NULL,
			route_step_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX idx_acls_source ON acls (source_id);
		CREATE INDEX idx_acls_step ON acls (route_step_id);

		CREATE TABLE documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			creator_id TEXT NOT NULL DEFAULT '',
			tag_ids TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);

		CREATE TABLE files (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			name TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX idx_files_document ON files (document_id);

		CREATE TABLE tags (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			member_user_ids TEXT[] NOT NULL DEFAULT '{}',
			member_group_ids TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		);
	`,
}
