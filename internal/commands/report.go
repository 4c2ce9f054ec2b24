package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/revlinehq/revline/internal/app"
	"github.com/revlinehq/revline/internal/utils"
)

// ReportCommand returns the CLI command for the review report artifacts
func ReportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Render and regenerate review report artifacts",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Render the markdown report in the terminal",
				Action: reportShowAction,
			},
			{
				Name:   "write",
				Usage:  "Regenerate both artifacts from the current comments",
				Action: reportWriteAction,
			},
			{
				Name:   "path",
				Usage:  "Print the artifact file paths",
				Action: reportPathAction,
			},
		},
	}
}

func reportShowAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	// Regenerate first so the rendered view matches the current comments
	if err := application.Session.Export(); err != nil {
		return err
	}

	mdPath, _ := application.Session.ArtifactPaths()
	content, err := os.ReadFile(mdPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fall back to raw markdown if the terminal renderer cannot start
		fmt.Print(string(content))
		return nil
	}

	rendered, err := renderer.Render(string(content))
	if err != nil {
		fmt.Print(string(content))
		return nil
	}

	fmt.Print(rendered)
	return nil
}

func reportWriteAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if err := application.Session.Export(); err != nil {
		utils.PrintError(fmt.Sprintf("Failed to write artifacts: %s", err))
		return err
	}

	mdPath, jsonPath := application.Session.ArtifactPaths()
	utils.PrintSuccess("Artifacts regenerated")
	utils.PrintKeyValue("Report", mdPath)
	utils.PrintKeyValue("Artifact", jsonPath)

	return nil
}

func reportPathAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	mdPath, jsonPath := application.Session.ArtifactPaths()
	fmt.Println(mdPath)
	fmt.Println(jsonPath)

	return nil
}
