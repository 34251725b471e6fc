package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
)

var errNotConfigured = errors.New("LinkAce API is not configured: set linkace_api_url and linkace_api_token")

type checkResult struct {
	URL           string          `json:"url"`
	NormalizedURL string          `json:"normalized_url"`
	Status        string          `json:"status"`
	LinkID        int             `json:"link_id,omitempty"`
	Badge         tabstatus.Badge `json:"badge"`
}

func newCheckCmd(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Report whether a page is already saved, as the toolbar badge would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load(cmd)
			if err != nil {
				return err
			}

			status := a.Resolver(nil, nil, nil).Classify(cmd.Context(), args[0])
			switch status.Kind {
			case tabstatus.KindUnconfigured:
				return errNotConfigured
			case tabstatus.KindError:
				return fmt.Errorf("checking %s: %w", args[0], status.Err)
			}

			res := checkResult{
				URL:           args[0],
				NormalizedURL: tabstatus.NormalizeURL(args[0]),
				Status:        status.Kind.String(),
				LinkID:        status.LinkID,
				Badge:         status.Badge(),
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), status.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newSearchCmd(rt *runtime) *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Find links matching every term; #tag and @list terms match collections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load(cmd)
			if err != nil {
				return err
			}
			if !a.Service.Configured() {
				return errNotConfigured
			}

			links, err := a.Aggregator(nil).Links(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.Config.SuggestionLimit
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(omnibox.Suggestions(links, limit))
			}
			if len(links) > limit {
				links = links[:limit]
			}
			for _, l := range links {
				if _, err := fmt.Fprintf(out, "%d\t%s\t%s\n", l.ID, l.Title, l.URL); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output omnibox suggestions as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (default: suggestion_limit)")
	return cmd
}
