// Package commands implements the CLI commands for the Revline application
package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revlinehq/revline/internal/app"
	"github.com/revlinehq/revline/internal/diff"
	"github.com/revlinehq/revline/internal/utils"
)

// ReviewCommand returns the CLI command for inspecting the current review
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"r"},
		Usage:   "Inspect the current review session",
		Action:  reviewStatusAction,
		Subcommands: []*cli.Command{
			{
				Name:   "files",
				Usage:  "List changed files in the working tree",
				Action: reviewFilesAction,
			},
			{
				Name:      "diff",
				Usage:     "Show the annotated diff of a file against the base branch",
				ArgsUsage: "<path>",
				Action:    reviewDiffAction,
			},
			{
				Name:   "complete",
				Usage:  "Mark the current review session as completed",
				Action: reviewCompleteAction,
			},
		},
	}
}

func reviewStatusAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	s := application.Session.Session()
	comments, err := application.Session.Comments()
	if err != nil {
		return err
	}

	mdPath, jsonPath := application.Session.ArtifactPaths()

	utils.PrintHeading("Review Session")
	utils.PrintKeyValue("Branch", s.Branch)
	utils.PrintKeyValue("Base", s.BaseBranch)
	utils.PrintKeyValue("Status", string(s.Status))
	utils.PrintKeyValue("Comments", fmt.Sprintf("%d", len(comments)))
	utils.PrintKeyValue("Report", mdPath)
	utils.PrintKeyValue("Artifact", jsonPath)

	return nil
}

func reviewFilesAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	files, err := application.Git.ChangedFiles()
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to list changed files: %s", err))
		return err
	}

	if len(files) == 0 {
		utils.PrintInfo("Working tree is clean")
		return nil
	}

	rows := make([][]string, 0, len(files))
	for _, f := range files {
		staged := ""
		if f.Staged {
			staged = "yes"
		}
		rows = append(rows, []string{f.Path, string(f.Status), staged, f.Language})
	}

	opts := utils.DefaultTableOptions()
	opts.Title = fmt.Sprintf("Changed Files (%d)", len(files))
	utils.PrintTable([]string{"Path", "Status", "Staged", "Language"}, rows, opts)

	return nil
}

func reviewDiffAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("usage: revline review diff <path>")
	}

	lines, err := application.Session.DiffFile(path)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to diff %s: %s", path, err))
		return err
	}

	if len(lines) == 0 {
		utils.PrintInfo(fmt.Sprintf("No content for %s on either side", path))
		return nil
	}

	utils.PrintHeading(fmt.Sprintf("%s (vs %s)", path, application.Session.Session().BaseBranch))
	fmt.Print(diff.Render(lines))

	return nil
}

func reviewCompleteAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if err := application.Session.Complete(); err != nil {
		return err
	}

	utils.PrintSuccess(fmt.Sprintf("Review for %s marked completed", application.Session.Branch()))
	return nil
}
