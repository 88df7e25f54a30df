package mysql

// Ids come from a single sequence table so they are unique across kinds,
// like datastore-allocated ids.
const createSequenceSQL = `
CREATE TABLE IF NOT EXISTS entity_ids (
  id         BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
  kind       VARCHAR(64) NOT NULL,
  created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const createEntitiesSQL = `
CREATE TABLE IF NOT EXISTS entities (
  kind       VARCHAR(64) NOT NULL,
  id         BIGINT      NOT NULL,
  props      JSON        NOT NULL,
  updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
  PRIMARY KEY (kind, id)
)`

const allocateIDSQL = `INSERT INTO entity_ids (kind) VALUES (?)`

const upsertEntitySQL = `
INSERT INTO entities (kind, id, props)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  props = VALUES(props)
`

const getEntitySQL = `SELECT props FROM entities WHERE kind = ? AND id = ?`

const deleteEntitySQL = `DELETE FROM entities WHERE kind = ? AND id = ?`

// Query is built from this prefix plus one predicate per equality filter.
const queryEntitiesPrefix = "SELECT id, props FROM entities WHERE kind = ?"

// Numbers compare as JSON numbers; strings need unquoting first.
const (
	numericFilterSQL = " AND JSON_EXTRACT(props, ?) = ?"
	stringFilterSQL  = " AND JSON_UNQUOTE(JSON_EXTRACT(props, ?)) = ?"
)

const queryEntitiesSuffix = " ORDER BY id"
