package vectorstore

// Schema is the persisted-state contract of spec §6. It is not executed by
// this package — migrations are an out-of-scope external collaborator — but
// is kept here as the authoritative table layout the queries in store.go
// assume.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	tenant_id      TEXT NOT NULL,
	entity_id      TEXT NOT NULL,
	entity_type    TEXT NOT NULL,
	attributes     JSONB NOT NULL DEFAULT '{}',
	feature_vector vector(512),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, entity_id, entity_type)
);
CREATE INDEX IF NOT EXISTS entities_feature_vector_idx ON entities
	USING hnsw (feature_vector vector_cosine_ops) WITH (m = 16, ef_construction = 64);

CREATE TABLE IF NOT EXISTS interactions (
	id               UUID PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	entity_id        TEXT NOT NULL,
	entity_type      TEXT NOT NULL,
	interaction_type TEXT NOT NULL,
	weight           DOUBLE PRECISION NOT NULL,
	metadata         JSONB,
	timestamp        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS interactions_user_idx ON interactions (tenant_id, user_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS interactions_entity_idx ON interactions (tenant_id, entity_id);

CREATE TABLE IF NOT EXISTS user_profiles (
	tenant_id           TEXT NOT NULL,
	user_id             TEXT NOT NULL,
	preference_vector   vector(512),
	interaction_count   INT NOT NULL DEFAULT 0,
	last_interaction_at TIMESTAMPTZ,
	seed_version        BIGINT NOT NULL DEFAULT 0,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, user_id)
);
CREATE INDEX IF NOT EXISTS user_profiles_preference_vector_idx ON user_profiles
	USING hnsw (preference_vector vector_cosine_ops) WITH (m = 16, ef_construction = 64);

CREATE TABLE IF NOT EXISTS trending_entities (
	tenant_id    TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	score        DOUBLE PRECISION NOT NULL,
	window_start TIMESTAMPTZ NOT NULL,
	window_end   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS trending_tenant_window_idx ON trending_entities (tenant_id, window_start);

CREATE TABLE IF NOT EXISTS interaction_types (
	tenant_id        TEXT NOT NULL,
	interaction_type TEXT NOT NULL,
	weight           DOUBLE PRECISION NOT NULL,
	description      TEXT,
	PRIMARY KEY (tenant_id, interaction_type)
);
`
