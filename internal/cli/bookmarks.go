package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/dashboard/internal/client"
	"github.com/MrSnakeDoc/dashboard/internal/config"
	"github.com/MrSnakeDoc/dashboard/internal/domain"
	"github.com/MrSnakeDoc/dashboard/internal/logger"
	"github.com/MrSnakeDoc/dashboard/internal/view"
)

func newBookmarksCmd(root *rootOptions, clientCfg config.ClientConfig) *cobra.Command {
	// controller builds a view controller over the API selected by --api.
	controller := func() *view.Controller {
		api := client.New(root.apiURL, clientCfg.Timeout, logger.NewNop())
		return view.NewController(api, logger.NewNop())
	}

	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"bm"},
		Short:   "List and edit bookmarks on a running server",
	}
	cmd.AddCommand(
		newListCmd(controller),
		newAddCmd(controller),
		newEditCmd(controller),
		newRmCmd(controller),
	)
	return cmd
}

func newListCmd(controller func() *view.Controller) *cobra.Command {
	var search, tag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks sorted by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := controller()
			if err := c.Load(cmd.Context()); err != nil {
				return userError(c, err)
			}
			c.SetSearch(search)
			c.SetTagFilter(tag)
			return printBookmarks(cmd.OutOrStdout(), c.Visible())
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive match on name, url or tags")
	cmd.Flags().StringVarP(&tag, "tag", "t", view.AllTags,
		fmt.Sprintf("Only bookmarks with this tag (%s, %s)", view.AllTags, strings.Join(view.TagOptions, ", ")))
	return cmd
}

func newAddCmd(controller func() *view.Controller) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "add NAME [URL]",
		Short: "Add a bookmark",
		Example: `dashboard bookmarks add "Go" go.dev --tags idea,design
dashboard bookmarks add "Reading list"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := controller()
			url := ""
			if len(args) == 2 {
				url = args[1]
			}
			c.SetDraft(args[0], url)
			for _, t := range tags {
				c.AddDraftTag(strings.TrimSpace(t))
			}

			saved, err := c.Submit(cmd.Context())
			if err != nil {
				return userError(c, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %s %s\n", saved.ID, saved.Name)
			return err
		},
	}
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags for the bookmark")
	return cmd
}

func newEditCmd(controller func() *view.Controller) *cobra.Command {
	var (
		name, url  string
		tags       []string
		addTags    []string
		removeTags []string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change name, url or tags of a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := controller()
			if err := c.Load(cmd.Context()); err != nil {
				return userError(c, err)
			}
			if !c.StartEdit(args[0]) {
				return fmt.Errorf("bookmark %s not found", args[0])
			}

			draft := c.Draft()
			if cmd.Flags().Changed("name") {
				draft.Name = name
			}
			if cmd.Flags().Changed("url") {
				draft.URL = url
			}
			c.SetDraft(draft.Name, draft.URL)
			if cmd.Flags().Changed("tags") {
				for _, t := range draft.Tags {
					c.RemoveDraftTag(t)
				}
				addTags = append(append([]string{}, tags...), addTags...)
			}
			for _, t := range addTags {
				c.AddDraftTag(strings.TrimSpace(t))
			}
			for _, t := range removeTags {
				c.RemoveDraftTag(strings.TrimSpace(t))
			}

			saved, err := c.Submit(cmd.Context())
			if err != nil {
				return userError(c, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "updated %s %s\n", saved.ID, saved.Name)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&url, "url", "", "New url (empty clears it)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Replace all tags")
	cmd.Flags().StringSliceVar(&addTags, "add-tag", nil, "Add tags")
	cmd.Flags().StringSliceVar(&removeTags, "remove-tag", nil, "Remove tags")
	return cmd
}

func newRmCmd(controller func() *view.Controller) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Delete bookmarks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := controller()
			for _, id := range args {
				if err := c.Delete(cmd.Context(), id); err != nil {
					return userError(c, err)
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// userError prefers the controller's fixed message over transport detail.
func userError(c *view.Controller, err error) error {
	if msg := c.Message(); msg != "" {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func printBookmarks(w io.Writer, list []domain.Bookmark) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no bookmarks")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tURL\tTAGS")
	for _, b := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.URL, strings.Join(b.Tags, ","))
	}
	return tw.Flush()
}
