package postgresql

// migrations returns the ordered schema migrations for the automation engine.
// The UNIQUE constraint on (workflow_id, dedup_key) is load-bearing: the
// idempotency guard's conditional insert rides on it.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflows (
				id           TEXT PRIMARY KEY,
				workspace_id TEXT NOT NULL,
				name         TEXT NOT NULL,
				description  TEXT NOT NULL DEFAULT '',
				trigger      JSONB NOT NULL,
				actions      JSONB NOT NULL,
				enabled      BOOLEAN NOT NULL DEFAULT FALSE,
				created_by   TEXT NOT NULL DEFAULT '',
				created_at   TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at   TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at   TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_workflows_workspace_trigger
				ON workflows (workspace_id, (trigger->>'kind'))
				WHERE deleted_at IS NULL;
		`,
		2: `
			CREATE TABLE IF NOT EXISTS executions (
				id           TEXT NOT NULL,
				workflow_id  TEXT NOT NULL,
				workspace_id TEXT NOT NULL,
				dedup_key    TEXT NOT NULL,
				status       TEXT NOT NULL,
				actions      JSONB NOT NULL DEFAULT '[]',
				started_at   TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at  TIMESTAMP WITH TIME ZONE,
				PRIMARY KEY (workflow_id, dedup_key)
			);

			CREATE INDEX IF NOT EXISTS idx_executions_workflow_started
				ON executions (workflow_id, started_at DESC);
		`,
	}
}
