package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"propgen/internal/bridge"
	"propgen/internal/config"
	"propgen/internal/deck"
	"propgen/internal/diagram"
	"propgen/internal/extract"
	"propgen/internal/llm"
	"propgen/internal/render"
)

var (
	synthIn  string
	synthOut string

	renderIn   string
	renderOut  string
	renderPPTX string

	editIn     string
	editOut    string
	editPNGOut string
)

// synthCmd turns extracted process text into diagram source.
var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize a flow diagram from process text",
	Long: `Reads a process description and produces flow-diagram source
through the generative-text service, validated against the diagram
contract (single main path, one style class per node, short labels).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx := cmd.Context()

		text, err := os.ReadFile(synthIn)
		if err != nil {
			return fmt.Errorf("read process text: %w", err)
		}
		client, err := llm.NewGenAIClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return err
		}
		synth := diagram.NewSynthesizer(client, logger)
		d, code, err := synth.Synthesize(ctx, string(text))
		if err != nil {
			return err
		}
		logger.Info("diagram synthesized",
			zap.Int("nodes", len(d.Nodes)), zap.Int("edges", len(d.Edges)))

		if synthOut == "" {
			fmt.Println(code)
			return nil
		}
		return os.WriteFile(synthOut, []byte(code), 0o644)
	},
}

// renderCmd rasterizes diagram source and optionally exports the
// editable shape deck.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render diagram source to an image",
	Long: `Runs the rendering fallback chain over the diagram source and
writes the first normalized raster that survives validation. With
--pptx, also writes the diagram as an editable shape deck.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code, err := os.ReadFile(renderIn)
		if err != nil {
			return fmt.Errorf("read diagram source: %w", err)
		}

		if renderPPTX != "" {
			d, err := diagram.Parse(string(code))
			if err != nil {
				return fmt.Errorf("parse diagram source: %w", err)
			}
			pkg, err := deck.Export(d)
			if err != nil {
				return err
			}
			if err := os.WriteFile(renderPPTX, pkg, 0o644); err != nil {
				return err
			}
			logger.Info("shape deck written", zap.String("path", renderPPTX))
		}

		art, err := newRenderer().Render(ctx, string(code))
		if err != nil {
			return err
		}
		if art == nil {
			logger.Warn("no strategy produced an image; keep the diagram source")
			return nil
		}
		if err := os.WriteFile(renderOut, art.PNG, 0o644); err != nil {
			return err
		}
		logger.Info("diagram rendered",
			zap.String("strategy", art.Strategy), zap.String("path", renderOut))
		return nil
	},
}

// editCmd round-trips the diagram through the external editor.
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the diagram in the external editor and pull it back",
	Long: `Opens the diagram in the external editor, waits for you to finish
editing, then exports the edited markup and a shareable read-only
viewer link.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		code, err := os.ReadFile(editIn)
		if err != nil {
			return fmt.Errorf("read diagram source: %w", err)
		}

		downloadDir := cfg.Editor.DownloadDir
		if err := os.MkdirAll(downloadDir, 0o755); err != nil {
			return fmt.Errorf("prepare download dir: %w", err)
		}
		factory := bridge.NewRodFactory("", downloadDir, cfg.Editor.Headless, logger)
		b := bridge.New(factory, bridge.Config{
			DownloadDir:   downloadDir,
			Cooldown:      config.Duration(cfg.Editor.Cooldown, 3*time.Second),
			ExportTimeout: config.Duration(cfg.Editor.ExportTimeout, 20*time.Second),
			PollInterval:  config.Duration(cfg.Editor.PollInterval, 300*time.Millisecond),
		}, logger)
		defer func() { _ = b.Close() }()

		if err := b.Open(ctx, string(code)); err != nil {
			return fmt.Errorf("open editor session: %w", err)
		}
		fmt.Println("Editor session is active. Edit the diagram, then press Enter to export.")
		waitForEnter()

		markup, err := b.Export(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(editOut, []byte(markup), 0o644); err != nil {
			return err
		}
		if url, err := bridge.ViewerURL(markup); err == nil {
			fmt.Println("Read-only preview:", url)
		}

		if editPNGOut != "" {
			png, err := b.CapturePNG(ctx)
			if err != nil {
				logger.Warn("could not capture edited diagram image", zap.Error(err))
			} else if err := os.WriteFile(editPNGOut, png, 0o644); err != nil {
				return err
			}
		}
		return nil
	},
}

func newRenderer() *render.Renderer {
	chrome := render.NewChromeStrategy(cfg.Render.ChromeBin, logger)
	return render.NewRenderer(
		render.DefaultChain(cfg.Render.KrokiURL, chrome),
		render.WithTimeout(config.Duration(cfg.Render.StrategyTimeout, 25*time.Second)),
		render.WithLogger(logger),
	)
}

func waitForEnter() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
}

// newExtractor is shared by extract and compose.
func newExtractor() *extract.Extractor {
	return extract.NewExtractor(
		extract.WithPageLimit(cfg.Extract.PageLimit),
		extract.WithLogger(logger),
	)
}

func init() {
	synthCmd.Flags().StringVar(&synthIn, "in", "", "process text file")
	synthCmd.Flags().StringVar(&synthOut, "out", "", "diagram source output (default stdout)")
	_ = synthCmd.MarkFlagRequired("in")

	renderCmd.Flags().StringVar(&renderIn, "in", "", "diagram source file")
	renderCmd.Flags().StringVar(&renderOut, "out", "diagram.png", "image output path")
	renderCmd.Flags().StringVar(&renderPPTX, "pptx", "", "also export an editable shape deck")
	_ = renderCmd.MarkFlagRequired("in")

	editCmd.Flags().StringVar(&editIn, "in", "", "diagram source file")
	editCmd.Flags().StringVar(&editOut, "out", "diagram.drawio.xml", "edited markup output path")
	editCmd.Flags().StringVar(&editPNGOut, "png", "", "also capture the edited diagram as an image")
	_ = editCmd.MarkFlagRequired("in")
}
