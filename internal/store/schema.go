package store

const SchemaVersion = 1

const schemaSQL = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- One row per compiled corpus
CREATE TABLE IF NOT EXISTS builds (
    id TEXT PRIMARY KEY,
    document TEXT,
    override_source TEXT,
    compiled_at DATETIME NOT NULL,
    placeholder_name TEXT NOT NULL,
    placeholder_text TEXT NOT NULL,
    stats TEXT NOT NULL,
    saved_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_builds_compiled ON builds(compiled_at);

-- Code keyed entries; name or text may be absent for partial records
CREATE TABLE IF NOT EXISTS archetypes (
    build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    code TEXT NOT NULL,
    name TEXT,
    detailed_text TEXT,
    PRIMARY KEY (build_id, code)
);

CREATE INDEX IF NOT EXISTS idx_archetypes_position ON archetypes(build_id, position);

-- Name keyed texts, the secondary lookup path
CREATE TABLE IF NOT EXISTS named_texts (
    build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    detailed_text TEXT NOT NULL,
    PRIMARY KEY (build_id, name)
);

-- Codes the override merger refused
CREATE TABLE IF NOT EXISTS rejected_codes (
    build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    code TEXT NOT NULL
);

-- Header-like lines that failed recognition
CREATE TABLE IF NOT EXISTS suspicious_lines (
    build_id TEXT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    line INTEGER NOT NULL,
    text TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suspicious_build ON suspicious_lines(build_id);
`

func GetSchema() string {
	return schemaSQL
}

func GetSchemaVersion() int {
	return SchemaVersion
}
