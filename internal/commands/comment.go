package commands

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/urfave/cli/v2"

	"github.com/revlinehq/revline/internal/app"
	"github.com/revlinehq/revline/internal/comment"
	"github.com/revlinehq/revline/internal/utils"
)

// commentTextWidth is the wrap width for comment text in list output
const commentTextWidth = 60

// CommentCommand returns the CLI command for managing review comments
func CommentCommand() *cli.Command {
	return &cli.Command{
		Name:    "comment",
		Aliases: []string{"c"},
		Usage:   "Manage review comments on the current branch",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a comment anchored to a file and line",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "File path the comment refers to",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "line",
						Aliases:  []string{"l"},
						Usage:    "Line number in the modified file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "end-line",
						Usage: "Last line of a multi-line range",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Comment type: issue, suggestion, question, praise",
						Value:   "issue",
					},
					&cli.StringFlag{
						Name:    "priority",
						Aliases: []string{"p"},
						Usage:   "Priority: critical, high, medium, low",
						Value:   "medium",
					},
				},
				Action: commentAddAction,
			},
			{
				Name:      "edit",
				Usage:     "Rewrite an existing comment's text, type, or priority",
				ArgsUsage: "<id> <text>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Comment type: issue, suggestion, question, praise",
						Value:   "issue",
					},
					&cli.StringFlag{
						Name:    "priority",
						Aliases: []string{"p"},
						Usage:   "Priority: critical, high, medium, low",
						Value:   "medium",
					},
				},
				Action: commentEditAction,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a comment by id",
				ArgsUsage: "<id>",
				Action:    commentDeleteAction,
			},
			{
				Name:   "clear",
				Usage:  "Delete all comments on the current branch",
				Action: commentClearAction,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List comments on the current branch",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Only show comments for this file",
					},
				},
				Action: commentListAction,
			},
		},
	}
}

func commentAddAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	text := strings.Join(c.Args().Slice(), " ")

	added, err := application.Session.AddComment(
		c.String("file"),
		c.Int("line"),
		c.Int("end-line"),
		text,
		comment.MapStringToType(c.String("type")),
		comment.MapStringToPriority(c.String("priority")),
	)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to add comment: %s", err))
		return err
	}

	utils.PrintSuccess(fmt.Sprintf("Added %s (%s, %s)", added.ID, added.Priority, added.Type))
	return nil
}

func commentEditAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("usage: revline comment edit <id> <text>")
	}
	text := strings.Join(c.Args().Tail(), " ")

	edited, err := application.Session.EditComment(
		id,
		text,
		comment.MapStringToType(c.String("type")),
		comment.MapStringToPriority(c.String("priority")),
	)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to edit comment: %s", err))
		return err
	}

	utils.PrintSuccess(fmt.Sprintf("Updated %s (%s, %s)", edited.ID, edited.Priority, edited.Type))
	return nil
}

func commentDeleteAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("usage: revline comment delete <id>")
	}

	if err := application.Session.DeleteComment(id); err != nil {
		utils.PrintError(fmt.Sprintf("Failed to delete comment: %s", err))
		return err
	}

	utils.PrintSuccess(fmt.Sprintf("Deleted %s", id))
	return nil
}

func commentClearAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if err := application.Session.ClearComments(); err != nil {
		return err
	}

	utils.PrintSuccess(fmt.Sprintf("Cleared all comments on %s", application.Session.Branch()))
	return nil
}

func commentListAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	var comments []*comment.ReviewComment
	if file := c.String("file"); file != "" {
		comments, err = application.Session.CommentsForFile(file)
	} else {
		comments, err = application.Session.Comments()
	}
	if err != nil {
		return err
	}

	if len(comments) == 0 {
		utils.PrintInfo("No comments yet")
		return nil
	}

	rows := make([][]string, 0, len(comments))
	for _, cm := range comments {
		location := fmt.Sprintf("%s:%d", cm.File, cm.Line)
		if cm.EndLine != 0 && cm.EndLine != cm.Line {
			location = fmt.Sprintf("%s-%d", location, cm.EndLine)
		}
		rows = append(rows, []string{
			cm.ID,
			location,
			string(cm.Type),
			cm.Priority.Label(),
			wordwrap.String(cm.Comment, commentTextWidth),
		})
	}

	opts := utils.DefaultTableOptions()
	opts.Title = fmt.Sprintf("Comments on %s", application.Session.Branch())
	utils.PrintTable([]string{"ID", "Location", "Type", "Priority", "Comment"}, rows, opts)

	return nil
}
