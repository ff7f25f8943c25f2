package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/DraftAnalyzer/internal/api"
	"github.com/TobiSchelling/DraftAnalyzer/internal/config"
	"github.com/TobiSchelling/DraftAnalyzer/internal/models"
	"github.com/TobiSchelling/DraftAnalyzer/internal/server"
	"github.com/TobiSchelling/DraftAnalyzer/internal/upload"
	"github.com/TobiSchelling/DraftAnalyzer/internal/view"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	apiURL     string
	cfg        *config.Config
	client     *api.Client
)

func main() {
	// A missing .env file is fine; the environment and config file still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "draftanalyzer",
	Short:   "Fantasy football draft analyzer",
	Long:    "Draft Analyzer uploads fantasy football drafts to the analysis backend, requests AI analyses, and shares the results.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case errors.Is(err, config.ErrNoConfig):
			if verbose {
				log.Printf("No config file found, using built-in defaults")
			}
			cfg, err = config.Default()
		case err != nil:
			return err
		default:
			cfg, err = config.Load(path)
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cfg.Logging.Verbose() {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		}
		if apiURL != "" {
			cfg.API.BaseURL = strings.TrimRight(apiURL, "/")
		}
		client = api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API root (overrides config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(draftsCmd)
	rootCmd.AddCommand(analysesCmd)
	rootCmd.AddCommand(sharedCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("draftanalyzer", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/draftanalyzer/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your analysis backend.")
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Printf("Backend API: %s\n", client.BaseURL())
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(client, server.Options{
			APIBaseURL:  cfg.API.BaseURL,
			PublicURL:   cfg.Server.PublicURL,
			CORSOrigins: cfg.Server.CORSOrigins,
			Limits:      uploadLimits(),
		}, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 3000, "Port to run server on")
}

// --- drafts command ---

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List, upload and analyze drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := view.LoadList(cmd.Context(), client)
		if v.State == view.Failed {
			return fmt.Errorf("%s: %w", v.Error, v.Err)
		}
		if v.Empty() {
			fmt.Println("No drafts yet. Upload one with: draftanalyzer drafts upload")
			return nil
		}

		fmt.Println("Drafts:")
		fmt.Println()
		for _, d := range v.Drafts {
			fmt.Printf("  [%d] %s (%s)\n", d.ID, d.Title, d.FileType.Normalized())
			details := []string{models.FormatDate(d.CreatedAt), humanize.Comma(int64(len(d.DraftData))) + " characters"}
			if len(d.TeamNames) > 0 {
				details = append(details, english.Plural(len(d.TeamNames), "team", ""))
			}
			fmt.Printf("        %s\n", strings.Join(details, ", "))
		}
		return nil
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a draft and its latest analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		v := view.LoadDetail(cmd.Context(), client, id)
		if v.State == view.Failed {
			return fmt.Errorf("%s: %w", v.Error, v.Err)
		}
		printDraft(v.Draft)

		latest, ok := v.Latest()
		if !ok {
			fmt.Println("\nNo analysis yet. Run: draftanalyzer drafts analyze", id)
			return nil
		}
		fmt.Printf("\nAnalyses: %d\n", len(v.Analyses))
		printAnalysis(view.NewDisplay(latest, v.Draft.Title, publicOrigin()))
		return nil
	},
}

var (
	uploadTitle string
	uploadFile  string
	uploadData  string
	uploadTeams []string
	uploadInfo  string
)

var draftsUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a draft from a file or text",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := upload.NewForm()
		f.Title = uploadTitle
		f.TeamNames = uploadTeams
		f.AdditionalInfo = uploadInfo

		switch {
		case uploadFile != "" && uploadData != "":
			return fmt.Errorf("use either --file or --data, not both")
		case uploadData != "":
			f.Mode = upload.ModeManual
			f.ManualData = uploadData
			if uploadData == "-" {
				data, err := readStdin()
				if err != nil {
					return err
				}
				f.ManualData = data
			}
		case uploadFile != "":
			data, err := os.ReadFile(uploadFile)
			if err != nil {
				return fmt.Errorf("reading draft file: %w", err)
			}
			f.File = &models.FileAttachment{Name: filepath.Base(uploadFile), Data: data}
		}

		id, err := upload.Submit(cmd.Context(), client, f, uploadLimits())
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded draft [%d]: %s\n", id, strings.TrimSpace(uploadTitle))
		fmt.Println("Analyze it with: draftanalyzer drafts analyze", id)
		return nil
	},
}

func init() {
	draftsUploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", "Draft title")
	draftsUploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "CSV or TXT file with the draft results")
	draftsUploadCmd.Flags().StringVarP(&uploadData, "data", "d", "", "Draft results as text (- reads stdin)")
	draftsUploadCmd.Flags().StringArrayVar(&uploadTeams, "team", nil, "Team owner name (repeatable)")
	draftsUploadCmd.Flags().StringVar(&uploadInfo, "info", "", "Additional league context")
}

var draftsAnalyzeCmd = &cobra.Command{
	Use:   "analyze [id]",
	Short: "Request a new AI analysis of a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		v := view.LoadDetail(cmd.Context(), client, id)
		if v.State == view.Failed {
			return fmt.Errorf("%s: %w", v.Error, v.Err)
		}

		fmt.Printf("Analyzing %q. This usually takes 30-60 seconds...\n", v.Draft.Title)
		if err := v.Analyze(cmd.Context(), client); err != nil {
			return fmt.Errorf("%s: %w", v.Error, err)
		}
		printAnalysis(view.NewDisplay(v.Analyses[0], v.Draft.Title, publicOrigin()))
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsListCmd)
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsUploadCmd)
	draftsCmd.AddCommand(draftsAnalyzeCmd)
}

// --- analyses command ---

var analysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Inspect, share and export analyses",
}

var analysesListCmd = &cobra.Command{
	Use:   "list [draft-id]",
	Short: "List the analyses of a draft, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "draft")
		if err != nil {
			return err
		}
		list, err := client.ListAnalyses(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No analyses for this draft.")
			return nil
		}
		for _, a := range list {
			public := ""
			if a.IsPublic {
				public = " (shared)"
			}
			fmt.Printf("  [%d] %-9s %s%s\n", a.ID, a.Status, models.FormatDate(a.CreatedAt), public)
		}
		return nil
	},
}

var analysesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDisplay(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printAnalysis(d)
		return nil
	},
}

var analysesShareCmd = &cobra.Command{
	Use:   "share [id]",
	Short: "Make an analysis public and print its link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDisplay(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		link, err := d.Share(cmd.Context(), client)
		if err != nil {
			return err
		}
		fmt.Println(link)
		return nil
	},
}

var exportOutput string

var analysesExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export an analysis as a text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDisplay(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		exp, err := d.Export()
		if err != nil {
			return err
		}

		if exportOutput == "-" {
			fmt.Println(exp.Content)
			return nil
		}
		target := exportOutput
		if target == "" {
			target = exp.Filename
		}
		if err := os.WriteFile(target, []byte(exp.Content), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Exported to %s (%s)\n", target, humanize.Bytes(uint64(len(exp.Content))))
		return nil
	},
}

func init() {
	analysesExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (- for stdout)")

	analysesCmd.AddCommand(analysesListCmd)
	analysesCmd.AddCommand(analysesShowCmd)
	analysesCmd.AddCommand(analysesShareCmd)
	analysesCmd.AddCommand(analysesExportCmd)
}

// --- shared command ---

var sharedCmd = &cobra.Command{
	Use:   "shared [token]",
	Short: "Show a publicly shared analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := view.LoadShared(cmd.Context(), client, args[0])
		if v.State == view.Failed {
			return fmt.Errorf("%s: %s", v.Title, v.Error)
		}
		fmt.Println(v.Analysis.DraftTitle)
		fmt.Printf("Analyzed on %s\n\n", v.AnalyzedOn())
		fmt.Println(v.Analysis.AnalysisText)
		return nil
	},
}

// loadDisplay fetches an analysis and the title of its draft.
func loadDisplay(ctx context.Context, arg string) (*view.Display, error) {
	id, err := parseID(arg, "analysis")
	if err != nil {
		return nil, err
	}
	a, err := client.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := client.GetDraft(ctx, a.DraftID)
	if err != nil {
		return nil, err
	}
	return view.NewDisplay(*a, d.Title, publicOrigin()), nil
}

func printDraft(d *models.Draft) {
	fmt.Printf("[%d] %s\n", d.ID, d.Title)
	fmt.Printf("  Created: %s\n", models.FormatDate(d.CreatedAt))
	fmt.Printf("  Source: %s upload\n", d.FileType.Normalized())
	if len(d.TeamNames) > 0 {
		fmt.Printf("  Teams: %s\n", strings.Join(d.TeamNames, ", "))
	}
	if d.AdditionalInfo != "" {
		fmt.Printf("  Context: %s\n", d.AdditionalInfo)
	}
}

func printAnalysis(d *view.Display) {
	fmt.Printf("\nAnalysis [%d] %s\n", d.Analysis.ID, d.Analysis.Status)
	switch d.Mode() {
	case view.ModeCompleted:
		text, _ := d.Analysis.Text()
		fmt.Printf("Generated on %s\n\n%s\n", d.GeneratedOn(), text)
		if link, ok := d.SharedURL(); ok {
			fmt.Printf("\nShared at %s\n", link)
		}
	default:
		fmt.Println(d.Message())
	}
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, arg)
	}
	return id, nil
}

// publicOrigin is where share links point when no request is available to
// derive it from.
func publicOrigin() string {
	if cfg.Server.PublicURL != "" {
		return cfg.Server.PublicURL
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}

func uploadLimits() upload.Limits {
	return upload.Limits{
		MaxFileSize:       cfg.Upload.MaxFileSizeBytes(),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
