// Package git provides the git worktree operations used to provision and
// reclaim attempt worktrees.
package git

import "context"

// WorktreeOperations defines the interface for git worktree operations.
type WorktreeOperations interface {
	// WorktreeAddNewBranch creates a new worktree with a new branch (git worktree add -b).
	WorktreeAddNewBranch(ctx context.Context, path, branch string) error
	// WorktreeRemove force-removes the worktree at the given path.
	WorktreeRemove(ctx context.Context, path string) error
	// WorktreeList returns the paths of all registered worktrees.
	WorktreeList(ctx context.Context) ([]string, error)
	// WorktreePrune removes stale worktree entries.
	WorktreePrune(ctx context.Context) error
}

// Runner defines the git operations available on a repository.
type Runner interface {
	WorktreeOperations
	// Run executes an arbitrary git command with the given arguments.
	// Returns the trimmed command output and an error if the command fails.
	Run(ctx context.Context, args ...string) (string, error)
}
