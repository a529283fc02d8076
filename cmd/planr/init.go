package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/planr/internal/config"
	"github.com/ShayCichocki/planr/internal/git"
	"github.com/ShayCichocki/planr/pkg/models"
)

var (
	initNoGit       bool
	initProjectName string
	initWithConfig  bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a planr project",
	Long: `Initialize a directory for use with planr.

This command:
  - Initializes a git repository if needed
  - Creates the .planr directory and its database
  - Registers the directory as a project
  - Optionally writes a .planr.yaml template

The directory argument is optional and defaults to the current directory.

Examples:
  planr init                 # Initialize current directory
  planr init ./myproject     # Initialize specific directory
  planr init --no-git        # Skip git initialization
  planr init --with-config   # Also write .planr.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initNoGit, "no-git", false, "Skip git initialization")
	initCmd.Flags().StringVar(&initProjectName, "project-name", "", "Override auto-detected project name")
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Create a .planr.yaml template")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}
	if err := os.Chdir(absPath); err != nil {
		return fmt.Errorf("changing to directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing planr in %s...\n\n", absPath)

	if !initNoGit {
		if err := initGitRepo(ctx, absPath); err != nil {
			return err
		}
	} else {
		fmt.Println("Skipping git initialization (--no-git flag)")
	}

	if err := os.MkdirAll(filepath.Join(absPath, ".planr", "logs"), 0755); err != nil {
		return fmt.Errorf("creating .planr directory: %w", err)
	}
	printStatus("✓", "Created .planr directory structure", color.FgGreen)

	if !initNoGit {
		if err := updateGitignore(absPath); err != nil {
			return fmt.Errorf("updating .gitignore: %w", err)
		}
		printStatus("✓", "Updated .gitignore with planr entries", color.FgGreen)
	}

	if initWithConfig {
		if err := createProjectConfig(absPath); err != nil {
			return fmt.Errorf("creating project config: %w", err)
		}
		printStatus("✓", "Created "+config.ProjectConfigName+" template", color.FgGreen)
	}

	return withApp(ctx, func(a *app) error {
		project, err := a.db.GetProjectByRepoPath(ctx, a.root)
		if err != nil {
			return fmt.Errorf("find project: %w", err)
		}
		if project == nil {
			name := initProjectName
			if name == "" {
				name = detectProjectName(ctx, a.root)
			}
			project = &models.Project{Name: name, RepoPath: a.root}
			if err := a.db.CreateProject(ctx, project); err != nil {
				return err
			}
			printStatus("✓", "Registered project "+project.Name, color.FgGreen)
		} else {
			printStatus("✓", "Project "+project.Name+" already registered", color.FgGreen)
		}

		if a.cfg.Generation.Backend == config.BackendAnthropic {
			if _, _, err := config.ResolveAPIKey(a.cfg); err != nil {
				printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
			}
		}

		fmt.Printf("\n%s planr initialization complete!\n\n", color.GreenString("✓"))
		fmt.Println("Next steps:")
		fmt.Println("  planr task create \"your task here\"")
		fmt.Println("  planr plan start <task-id>")
		fmt.Println()
		fmt.Println("Project details:")
		fmt.Printf("  Project name: %s\n", project.Name)
		fmt.Printf("  Project id:   %s\n", project.ID)
		fmt.Printf("  Repository:   %s\n", project.RepoPath)
		fmt.Printf("  Database:     %s\n", a.db.Path())
		return nil
	})
}

// initGitRepo runs git init unless the directory is already a repository.
func initGitRepo(ctx context.Context, repoPath string) error {
	if _, err := exec.LookPath("git"); err != nil {
		printStatus("✗", "Git not found", color.FgRed)
		return fmt.Errorf("git not found in PATH")
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		printStatus("✓", "Git repository exists", color.FgGreen)
		return nil
	}
	if _, err := git.NewRunner(repoPath).Run(ctx, "init"); err != nil {
		return err
	}
	printStatus("✓", "Initialized git repository", color.FgGreen)
	return nil
}

// updateGitignore appends planr's local state to .gitignore once.
func updateGitignore(repoPath string) error {
	path := filepath.Join(repoPath, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(existing), ".planr/") {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	entry := "\n# planr\n.planr/\n"
	if len(existing) == 0 || existing[len(existing)-1] == '\n' {
		entry = entry[1:]
	}
	_, err = f.WriteString(entry)
	return err
}

const projectConfigTemplate = `# planr project configuration
generation:
  backend: stub        # stub | anthropic | bedrock
  # model: claude-sonnet-4-20250514
  timeout: 2m

# mirror:
#   endpoint: https://mirror.example.com/api
#   token: ${PLANR_MIRROR_TOKEN}

cleanup:
  workers: 2
  queue_size: 64

log:
  level: info
`

// createProjectConfig writes the .planr.yaml template unless one exists.
func createProjectConfig(repoPath string) error {
	path := filepath.Join(repoPath, config.ProjectConfigName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(projectConfigTemplate), 0644)
}

// detectProjectName uses the origin remote's repository name, falling back
// to the directory name.
func detectProjectName(ctx context.Context, repoPath string) string {
	if url, err := git.NewRunner(repoPath).Run(ctx, "config", "--get", "remote.origin.url"); err == nil && url != "" {
		url = strings.TrimSuffix(url, ".git")
		parts := strings.Split(url, "/")
		if name := parts[len(parts)-1]; name != "" {
			return name
		}
	}
	return filepath.Base(repoPath)
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
