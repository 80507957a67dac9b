package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/swaanand-ops/outlook-mail-reader/internal/filter"
	"github.com/swaanand-ops/outlook-mail-reader/internal/outlook"
)

func newSearchCmd() *cobra.Command {
	var (
		sender        string
		keyword       string
		maxItems      int
		folder        string
		inSubject     bool
		inBody        bool
		caseSensitive bool
		useRegex      bool
		asJSON        bool
		withStats     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the mailbox for messages matching a sender and keyword",
		Long: `Search the signed-in mailbox for messages from a given sender whose
subject or body contains a keyword. Flags override the defaults from the
environment. If no token is cached the device-code flow runs first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}

			// Flags not set on the command line keep their configured
			// defaults.
			if !cmd.Flags().Changed("sender") {
				sender = p.cfg.SenderFilter
			}
			if !cmd.Flags().Changed("keyword") {
				keyword = p.cfg.Keyword
			}
			if !cmd.Flags().Changed("max-items") {
				maxItems = p.cfg.MaxItems
			}
			if !cmd.Flags().Changed("subject") {
				inSubject = p.cfg.SearchInSubject
			}
			if !cmd.Flags().Changed("body") {
				inBody = p.cfg.SearchInBody
			}
			if !cmd.Flags().Changed("case-sensitive") {
				caseSensitive = p.cfg.CaseSensitive
			}
			if !cmd.Flags().Changed("regex") {
				useRegex = p.cfg.UseRegex
			}

			scope, err := filter.ParseScope(inSubject, inBody)
			if err != nil {
				return err
			}
			crit := filter.Criteria{
				Sender:        sender,
				Keyword:       keyword,
				Regex:         useRegex,
				Scope:         scope,
				CaseSensitive: caseSensitive,
				MaxItems:      maxItems,
			}

			ctx := cmd.Context()
			if err := p.auth.Authenticate(ctx, func(dc *oauth2.DeviceAuthResponse) {
				printChallenge(cmd, dc)
			}); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			reader := p.reader(folder)
			results, stats, err := reader.SearchWithStats(ctx, crit, nil)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(results, stats, withStats)
			}
			printText(cmd, results, stats, withStats)
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "only match messages from this exact address")
	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword to look for in matching messages")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "stop after this many matches")
	cmd.Flags().StringVar(&folder, "folder", "", "restrict the search to a mail folder ID")
	cmd.Flags().BoolVar(&inSubject, "subject", true, "match the keyword against the subject")
	cmd.Flags().BoolVar(&inBody, "body", true, "match the keyword against the body")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match the keyword case-sensitively")
	cmd.Flags().BoolVar(&useRegex, "regex", false, "treat the keyword as a regular expression")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&withStats, "stats", false, "include aggregate statistics")
	return cmd
}

func printJSON(results []outlook.FormattedEmail, stats *outlook.AggregateStats, withStats bool) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if withStats {
		return enc.Encode(struct {
			Results []outlook.FormattedEmail `json:"results"`
			Stats   *outlook.AggregateStats  `json:"stats"`
		}{results, stats})
	}
	return enc.Encode(results)
}

func printText(cmd *cobra.Command, results []outlook.FormattedEmail, stats *outlook.AggregateStats, withStats bool) {
	if len(results) == 0 {
		cmd.Println("No matching messages found.")
		return
	}

	for i, r := range results {
		cmd.Printf("%d. %s\n", i+1, r.Subject)
		cmd.Printf("   From:     %s <%s>\n", r.SenderName, r.SenderEmail)
		cmd.Printf("   Received: %s\n", r.Timestamp)
		if r.Preview != "" {
			cmd.Printf("   Preview:  %s\n", r.Preview)
		}
		cmd.Printf("   Link:     %s\n", r.OutlookLink)
	}
	cmd.Printf("\n%d matching message(s)\n", len(results))

	if withStats {
		printBuckets(cmd, "By sender:", stats.Senders)
		printBuckets(cmd, "By date:", stats.Dates)
		printBuckets(cmd, "By keyword:", stats.Keywords)
	}
}

func printBuckets(cmd *cobra.Command, title string, buckets map[string]int) {
	cmd.Println("\n" + title)
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %-40s %d\n", k, buckets[k])
	}
}
