package state

var migrations = []struct {
	version int
	sql     string
}{
	{1, migrationV1Projects},
	{2, migrationV2Tasks},
	{3, migrationV3Processes},
	{4, migrationV4PlanLedgers},
}

// Migration SQL statements
const migrationV1Projects = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	repo_path TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// parent_attempt_id references an attempt, which in turn belongs to a task.
// Child links must be cleared before the owning task (and with it its
// attempts) is deleted, otherwise the foreign key check fails.
const migrationV2Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'todo',
	parent_attempt_id TEXT REFERENCES task_attempts(id),
	plan_started_at DATETIME,
	plan_summary TEXT,
	shared_task_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_parent_attempt_id ON tasks(parent_attempt_id);

CREATE TABLE IF NOT EXISTS task_attempts (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	worktree_path TEXT,
	branch TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_attempts_task_id ON task_attempts(task_id);
`

const migrationV3Processes = `
CREATE TABLE IF NOT EXISTS execution_processes (
	id TEXT PRIMARY KEY,
	attempt_id TEXT NOT NULL REFERENCES task_attempts(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'running',
	started_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_execution_processes_attempt_id ON execution_processes(attempt_id);
CREATE INDEX IF NOT EXISTS idx_execution_processes_status ON execution_processes(status);
`

const migrationV4PlanLedgers = `
CREATE TABLE IF NOT EXISTS plan_questions (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	question_key TEXT NOT NULL,
	question_text TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT 'other',
	required INTEGER NOT NULL DEFAULT 0,
	suggested_answers TEXT,
	created_at DATETIME NOT NULL,
	UNIQUE (task_id, question_key)
);

CREATE INDEX IF NOT EXISTS idx_plan_questions_task_id ON plan_questions(task_id);

CREATE TABLE IF NOT EXISTS plan_answers (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	question_key TEXT NOT NULL,
	question_text TEXT NOT NULL,
	answer TEXT NOT NULL,
	answered_by TEXT,
	answered_at DATETIME NOT NULL,
	UNIQUE (task_id, question_key)
);

CREATE INDEX IF NOT EXISTS idx_plan_answers_task_id ON plan_answers(task_id);
`
