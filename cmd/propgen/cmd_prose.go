package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"propgen/internal/llm"
	"propgen/internal/prose"
)

var (
	proseClient  string
	proseContact string
	proseProject string
	proseOffer   string
	proseSource  string
	proseOutA    string
	proseOutB    string
)

// letterCmd generates the two cover-letter drafts.
var letterCmd = &cobra.Command{
	Use:   "letter",
	Short: "Generate cover letter drafts",
	Long: `Generates two independent cover-letter drafts concurrently so
they can be compared. A failed draft yields a placeholder, never an
error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := newProseGenerator(cmd)
		if err != nil {
			return err
		}
		drafts := g.CoverLetter(cmd.Context(), prose.LetterContext{
			Client:      proseClient,
			ContactName: proseContact,
			Project:     proseProject,
			OfferRef:    proseOffer,
			Date:        time.Now(),
		})
		return emitDrafts(drafts)
	},
}

// summaryCmd generates the two executive-summary drafts.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Generate executive summary drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := newProseGenerator(cmd)
		if err != nil {
			return err
		}
		solution, err := os.ReadFile(proseSource)
		if err != nil {
			return fmt.Errorf("read solution text: %w", err)
		}
		drafts := g.ExecutiveSummary(cmd.Context(), prose.SummaryContext{
			Client:       proseClient,
			Project:      proseProject,
			SolutionText: string(solution),
		})
		return emitDrafts(drafts)
	},
}

func newProseGenerator(cmd *cobra.Command) (*prose.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := llm.NewGenAIClient(cmd.Context(), cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return nil, err
	}
	return prose.NewGenerator(client, logger), nil
}

func emitDrafts(drafts prose.Candidates) error {
	if proseOutA == "" && proseOutB == "" {
		fmt.Println("--- Draft A ---")
		fmt.Println(drafts[0])
		fmt.Println("--- Draft B ---")
		fmt.Println(drafts[1])
		return nil
	}
	if proseOutA != "" {
		if err := os.WriteFile(proseOutA, []byte(drafts[0]), 0o644); err != nil {
			return err
		}
	}
	if proseOutB != "" {
		if err := os.WriteFile(proseOutB, []byte(drafts[1]), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{letterCmd, summaryCmd} {
		c.Flags().StringVar(&proseClient, "client", "", "client name")
		c.Flags().StringVar(&proseProject, "project", "", "project name")
		c.Flags().StringVar(&proseOutA, "out-a", "", "write draft A to a file")
		c.Flags().StringVar(&proseOutB, "out-b", "", "write draft B to a file")
		_ = c.MarkFlagRequired("client")
		_ = c.MarkFlagRequired("project")
	}
	letterCmd.Flags().StringVar(&proseContact, "contact", "", "client contact name")
	letterCmd.Flags().StringVar(&proseOffer, "offer-ref", "", "offer reference")
	summaryCmd.Flags().StringVar(&proseSource, "solution", "", "solution description file")
	_ = summaryCmd.MarkFlagRequired("solution")
}
