package sqlite

// schemaVersion is bumped whenever Schema changes in an incompatible way.
// Open refuses to open a database stamped with a different version
// rather than silently upgrading.
const schemaVersion = 1

// Schema is the KuzuMemory graph schema: two node tables
// (memories, entities) and two edge tables (mentions, relates_to), with
// the indices its query patterns need.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memories (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	memory_type TEXT NOT NULL,
	importance REAL NOT NULL,
	confidence REAL NOT NULL,
	created_at TIMESTAMP NOT NULL,
	valid_from TIMESTAMP NOT NULL,
	valid_to TIMESTAMP,
	accessed_at TIMESTAMP NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 0,
	source_type TEXT,
	user_id TEXT,
	session_id TEXT,
	agent_id TEXT,
	metadata TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_content_hash ON memories(content_hash);
CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(memory_type);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);
CREATE INDEX IF NOT EXISTS idx_memories_validity ON memories(valid_from, valid_to);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	first_seen TIMESTAMP NOT NULL,
	last_seen TIMESTAMP NOT NULL,
	mention_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_name_type ON entities(name, entity_type);

CREATE TABLE IF NOT EXISTS mentions (
	memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	confidence REAL NOT NULL,
	PRIMARY KEY (memory_id, entity_id)
);
CREATE INDEX IF NOT EXISTS idx_mentions_entity ON mentions(entity_id);

CREATE TABLE IF NOT EXISTS relates_to (
	from_memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	to_memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (from_memory_id, to_memory_id, kind)
);
`
