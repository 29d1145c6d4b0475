package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propgen/internal/extract"
	"propgen/internal/proposal"
	"propgen/internal/render"
	"propgen/internal/session"
)

var (
	extractIn  string
	extractOut string

	composeClient      string
	composeContact     string
	composeProject     string
	composeOffer       string
	composeLetter      string
	composeSummary     string
	composeDiagramPNG  string
	composeDiagramSrc  string
	composeClientLogo  string
	composeCompanyLogo string
	composeProfile     string
	composeOut         string
)

// extractCmd pulls the process-flow text out of a source document.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract process text from a source document",
	Long: `Reads a source document page by page (form feeds separate pages),
normalizes the text, and isolates the sections describing the system
and its process flow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := newExtractor().Extract(cmd.Context(), extract.TextFileSource{Path: extractIn})
		if err != nil {
			return err
		}
		if extractOut == "" {
			fmt.Println(text)
			return nil
		}
		return os.WriteFile(extractOut, []byte(text), 0o644)
	},
}

// composeCmd assembles the final proposal from prepared inputs.
var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose the final proposal document",
	Long: `Builds every proposal section from the prepared inputs -- chosen
letter and summary drafts, the rendered diagram, logos, and the
company profile -- and composes them into one branded document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		meta := proposal.Meta{
			Client:      composeClient,
			ContactName: composeContact,
			Project:     composeProject,
			OfferRef:    composeOffer,
			Date:        time.Now(),
		}
		var err error
		if meta.ClientLogo, err = os.ReadFile(composeClientLogo); err != nil {
			return fmt.Errorf("read client logo: %w", err)
		}
		if meta.CompanyLogo, err = os.ReadFile(composeCompanyLogo); err != nil {
			return fmt.Errorf("read company logo: %w", err)
		}
		letter, err := os.ReadFile(composeLetter)
		if err != nil {
			return fmt.Errorf("read letter draft: %w", err)
		}
		summary, err := os.ReadFile(composeSummary)
		if err != nil {
			return fmt.Errorf("read summary draft: %w", err)
		}

		var artifact *render.Artifact
		if composeDiagramPNG != "" {
			raw, err := os.ReadFile(composeDiagramPNG)
			if err != nil {
				return fmt.Errorf("read diagram image: %w", err)
			}
			norm, err := render.Normalize(raw)
			if err != nil {
				return fmt.Errorf("diagram image unusable: %w", err)
			}
			artifact = &render.Artifact{PNG: norm.PNG, Width: norm.Width, Height: norm.Height}
		}
		var diagramSrc string
		if composeDiagramSrc != "" {
			src, err := os.ReadFile(composeDiagramSrc)
			if err != nil {
				return fmt.Errorf("read diagram source: %w", err)
			}
			diagramSrc = string(src)
		}

		s := session.New(meta)
		if err := s.SetFragment(proposal.SectionCover, proposal.Cover(meta)); err != nil {
			return err
		}
		if err := s.SetFragment(proposal.SectionCoverLetter, proposal.CoverLetter(meta, string(letter))); err != nil {
			return err
		}
		if err := s.SetFragment(proposal.SectionRFQResponse, proposal.RFQResponse(meta, artifact)); err != nil {
			return err
		}
		if err := s.SetFragment(proposal.SectionExecutiveSummary, proposal.ExecutiveSummary(meta, string(summary))); err != nil {
			return err
		}
		if composeProfile != "" {
			profile, err := proposal.LoadProfile(composeProfile)
			if err != nil {
				return err
			}
			if err := s.SetFragment(proposal.SectionCompanyProfile, proposal.CompanyProfile(meta, profile)); err != nil {
				return err
			}
		}
		if artifact != nil || diagramSrc != "" {
			if err := s.SetFragment(proposal.SectionConcept, proposal.Concept(meta, artifact, diagramSrc)); err != nil {
				return err
			}
		}

		for _, sec := range proposal.Order() {
			_, ok := s.Fragment(sec)
			logger.Info("section status",
				zap.Stringer("section", sec), zap.Bool("present", ok))
		}

		doc, name, _, err := s.Finalize()
		if err != nil {
			return err
		}
		out := composeOut
		if out == "" {
			out = name
		}
		if err := os.WriteFile(out, doc, 0o644); err != nil {
			return err
		}
		logger.Info("proposal composed",
			zap.String("path", out), zap.Int("bytes", len(doc)))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractIn, "in", "", "source document")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output file (default stdout)")
	_ = extractCmd.MarkFlagRequired("in")

	composeCmd.Flags().StringVar(&composeClient, "client", "", "client name")
	composeCmd.Flags().StringVar(&composeContact, "contact", "", "client contact name")
	composeCmd.Flags().StringVar(&composeProject, "project", "", "project name")
	composeCmd.Flags().StringVar(&composeOffer, "offer-ref", "", "offer reference")
	composeCmd.Flags().StringVar(&composeLetter, "letter", "", "chosen cover letter draft")
	composeCmd.Flags().StringVar(&composeSummary, "summary", "", "chosen executive summary draft")
	composeCmd.Flags().StringVar(&composeDiagramPNG, "diagram", "", "rendered diagram image")
	composeCmd.Flags().StringVar(&composeDiagramSrc, "diagram-src", "", "diagram source, shown when no image is available")
	composeCmd.Flags().StringVar(&composeClientLogo, "client-logo", "", "client logo image")
	composeCmd.Flags().StringVar(&composeCompanyLogo, "company-logo", "", "company logo image")
	composeCmd.Flags().StringVar(&composeProfile, "profile", "", "company profile YAML asset")
	composeCmd.Flags().StringVar(&composeOut, "out", "", "output path (default derived from client and project)")
	for _, flag := range []string{"client", "project", "letter", "summary", "client-logo", "company-logo"} {
		_ = composeCmd.MarkFlagRequired(flag)
	}
}
