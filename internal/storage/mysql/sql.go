package mysql

const upsertSnapshotSQL = `
INSERT INTO sheet_snapshots
  (sheet_range, header, row_data, row_count, fetched_at)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  header     = VALUES(header),
  row_data   = VALUES(row_data),
  row_count  = VALUES(row_count),
  fetched_at = VALUES(fetched_at),
  updated_at = CURRENT_TIMESTAMP
`

const insertSyncFailureSQL = `
INSERT INTO sync_failures (sheet_range, reason)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  reason  = VALUES(reason),
  seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getSnapshotSQL = `
SELECT
  sheet_range,
  header,
  row_data,
  fetched_at
FROM sheet_snapshots
WHERE sheet_range = ?
`
