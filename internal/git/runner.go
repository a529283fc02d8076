package git

import (
	"context"
	"fmt"
	"strings"

	iexec "github.com/ShayCichocki/planr/internal/exec"
)

// ExecRunner implements Runner by invoking the git binary.
type ExecRunner struct {
	repoPath string
	cmd      iexec.CommandRunner
}

// NewRunner creates a new git runner for the repository at the given path.
func NewRunner(repoPath string) *ExecRunner {
	return NewRunnerWith(repoPath, iexec.NewRunner())
}

// NewRunnerWith creates a git runner that executes through cmd.
func NewRunnerWith(repoPath string, cmd iexec.CommandRunner) *ExecRunner {
	return &ExecRunner{repoPath: repoPath, cmd: cmd}
}

// RepoPath returns the repository the runner operates on.
func (r *ExecRunner) RepoPath() string {
	return r.repoPath
}

// Run executes an arbitrary git command with the given arguments.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.cmd.Run(ctx, r.repoPath, "git", args...)
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// WorktreeAddNewBranch creates a new worktree with a new branch (git worktree add -b).
func (r *ExecRunner) WorktreeAddNewBranch(ctx context.Context, path, branch string) error {
	_, err := r.Run(ctx, "worktree", "add", path, "-b", branch)
	return err
}

// WorktreeRemove force-removes the worktree at the given path.
func (r *ExecRunner) WorktreeRemove(ctx context.Context, path string) error {
	_, err := r.Run(ctx, "worktree", "remove", "--force", path)
	return err
}

// WorktreeList returns the paths of all registered worktrees.
func (r *ExecRunner) WorktreeList(ctx context.Context) ([]string, error) {
	out, err := r.Run(ctx, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "worktree ") {
			paths = append(paths, strings.TrimPrefix(line, "worktree "))
		}
	}
	return paths, nil
}

// WorktreePrune removes stale worktree entries.
func (r *ExecRunner) WorktreePrune(ctx context.Context) error {
	_, err := r.Run(ctx, "worktree", "prune")
	return err
}

var _ Runner = (*ExecRunner)(nil)
