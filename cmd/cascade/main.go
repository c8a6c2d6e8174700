package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zen-systems/cascade/pkg/adapter"
	"github.com/zen-systems/cascade/pkg/budget"
	"github.com/zen-systems/cascade/pkg/classify"
	"github.com/zen-systems/cascade/pkg/compliance"
	"github.com/zen-systems/cascade/pkg/config"
	"github.com/zen-systems/cascade/pkg/critic"
	"github.com/zen-systems/cascade/pkg/evidence"
	"github.com/zen-systems/cascade/pkg/logx"
	"github.com/zen-systems/cascade/pkg/reflection"
	"github.com/zen-systems/cascade/pkg/report"
	"github.com/zen-systems/cascade/pkg/router"
)

var (
	configFile string
	debugFlag  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cascade",
		Short: "Cost-aware LLM routing with reflective quality control",
		Long: `Cascade routes queries to the cheapest model tier that can satisfy
	them, enforces a hard session budget, and can refine generated output
	through a generate-critique loop until it meets the compliance rubric.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logx.Init(debugFlag)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to cascade config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(reflectCmd())
	rootCmd.AddCommand(tiersCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	var budgetFlag float64
	var tierFlag string
	var evidenceDir string
	var reportFlag bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]...",
		Short: "Route one or more prompts through a budget-capped session",
		Long: `Classifies each prompt, routes it to the configured tier model, and
	stops routing once the session budget is exhausted. Multiple prompts
	share one session and one budget.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if budgetFlag > 0 {
				cfg.Cascade.Budget.SessionLimitUSD = budgetFlag
			}
			if err := cfg.Cascade.Validate(); err != nil {
				return err
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			tracker := budget.NewTracker(cfg.Cascade.Budget.SessionLimitUSD)
			r, err := router.New(adapters, cfg.Cascade, tracker)
			if err != nil {
				return err
			}
			session := report.NewSession(tracker, cfg.Cascade.Tiers[config.TierComplex].CostPerCall)

			var writer *evidence.Writer
			sessionID := uuid.NewString()
			if evidenceDir != "" {
				writer, err = evidence.NewWriter(evidenceDir, sessionID)
				if err != nil {
					return fmt.Errorf("failed to create evidence writer: %w", err)
				}
			}

			var declared config.Tier
			if tierFlag != "" {
				tier, ok := config.ParseTier(tierFlag)
				if !ok {
					return fmt.Errorf("unknown tier %q", tierFlag)
				}
				declared = tier
			}

			for i, prompt := range args {
				decision, err := r.Route(context.Background(), classify.Query{
					Text:         prompt,
					DeclaredTier: declared,
				})
				if err != nil {
					return err
				}
				session.Record(decision)
				if writer != nil {
					if err := writer.WriteDecision(decision); err != nil {
						return err
					}
				}
				printDecision(i+1, decision)
			}

			rep := session.Report()
			if writer != nil {
				record := evidence.SessionRecord{
					ID:        sessionID,
					StartedAt: time.Now().UTC(),
					BudgetUSD: tracker.Limit(),
					Report:    &rep,
				}
				if err := writer.WriteSession(record); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Evidence: %s\n", writer.SessionDir())
			}
			if reportFlag || len(args) > 1 {
				printReport(rep)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&budgetFlag, "budget", 0, "session budget in USD (overrides config)")
	cmd.Flags().StringVar(&tierFlag, "tier", "", "pin the tier instead of classifying (simple, medium, complex)")
	cmd.Flags().StringVar(&evidenceDir, "evidence-dir", "", "write decision records under this directory")
	cmd.Flags().BoolVar(&reportFlag, "report", false, "print the session financial report")

	return cmd
}

func reflectCmd() *cobra.Command {
	var maxIterations int
	var directiveFlags []string
	var adapterFlag string
	var modelFlag string
	var evidenceDir string

	cmd := &cobra.Command{
		Use:   "reflect [prompt]",
		Short: "Generate output and refine it until it passes the rubric",
		Long: `Runs the generate-critique loop: the output is evaluated against the
	compliance rubric and regenerated with critic feedback until it passes
	or the iteration cap is reached. Mandatory rubric items override
	conflicting user directives (--directive key=value).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Cascade.Validate(); err != nil {
				return err
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			reflCfg := cfg.Cascade.Reflection
			if adapterFlag != "" {
				reflCfg.Adapter = adapterFlag
			}
			if modelFlag != "" {
				reflCfg.Model = modelFlag
			}
			if maxIterations > 0 {
				reflCfg.MaxIterations = maxIterations
			}

			generator, ok := adapters[reflCfg.Adapter]
			if !ok {
				return fmt.Errorf("adapter %q not available", reflCfg.Adapter)
			}
			judge, ok := adapters[reflCfg.JudgeAdapter]
			if !ok {
				judge = generator
			}

			rubric, err := critic.BuildRubric(cfg.Cascade.Rubric)
			if err != nil {
				return err
			}
			c, err := critic.New(rubric, critic.WithJudge(judge, reflCfg.JudgeModel))
			if err != nil {
				return err
			}

			directives, err := parseDirectives(directiveFlags)
			if err != nil {
				return err
			}

			loop := reflection.NewLoop(generator, reflCfg.Model, c)
			result, err := loop.Reflect(context.Background(), args[0], directives, reflCfg.MaxIterations)
			if err != nil {
				return err
			}

			if evidenceDir != "" {
				writer, werr := evidence.NewWriter(evidenceDir, result.Trace.ID)
				if werr != nil {
					return werr
				}
				if werr := writer.WriteTrace(result.Trace); werr != nil {
					return werr
				}
				fmt.Fprintf(os.Stderr, "Evidence: %s\n", writer.SessionDir())
			}

			printTrace(result)
			fmt.Println(result.FinalText)
			if result.Terminal == reflection.TerminalExhausted {
				fmt.Fprintln(os.Stderr, "Warning: iteration cap reached; output did NOT pass the rubric and needs review.")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "iteration cap (overrides config)")
	cmd.Flags().StringArrayVar(&directiveFlags, "directive", nil, "user directive as key=value (repeatable)")
	cmd.Flags().StringVar(&adapterFlag, "adapter", "", "override generation adapter")
	cmd.Flags().StringVar(&modelFlag, "model", "", "override generation model")
	cmd.Flags().StringVar(&evidenceDir, "evidence-dir", "", "write the reflection trace under this directory")

	return cmd
}

func tiersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Show the tier table and classifier rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIER\tADAPTER\tMODEL\tCOST/CALL")
			for _, tier := range config.Tiers() {
				profile := cfg.Cascade.Tiers[tier]
				fmt.Fprintf(w, "%s\t%s\t%s\t$%.3f\n", tier, profile.Adapter, profile.Model, profile.CostPerCall)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "Budget\t$%.2f per session\n", cfg.Cascade.Budget.SessionLimitUSD)
			fmt.Fprintf(w, "Complex markers\t%s\n", strings.Join(cfg.Cascade.Classifier.ComplexMarkers, ", "))
			fmt.Fprintf(w, "Simple markers\t%s\n", strings.Join(cfg.Cascade.Classifier.SimpleMarkers, ", "))
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available adapters and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := createAdapters(cfg)
			if err != nil {
				return err
			}

			var names []string
			for name := range adapters {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, name := range names {
				status := "ready"
				if !cfg.HasAdapter(name) && name != "mock" {
					status = "no key"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(adapters[name].Models(), ", "), status)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the cascade configuration",
		Long:  "Checks tier profiles, rubric definitions and budget without making any calls.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Cascade.Validate(); err != nil {
				return err
			}
			if _, err := critic.BuildRubric(cfg.Cascade.Rubric); err != nil {
				return err
			}
			fmt.Println("Configuration is valid.")
			return nil
		},
	}
}

func printDecision(n int, d router.Decision) {
	fmt.Printf("[Query %d] %s\n", n, d.Query)
	switch d.Outcome {
	case router.OutcomeSuccess:
		fmt.Printf("  tier=%s model=%s cost=$%.3f tokens=%d\n", d.Tier, d.Model, d.CostCharged, d.Tokens)
		fmt.Printf("  %s\n", firstLine(d.OutputText))
	case router.OutcomeHalted:
		fmt.Printf("  HALTED: %s\n", d.Err)
	case router.OutcomeModelError:
		fmt.Printf("  MODEL ERROR: %s\n", d.Err)
	}
}

func printReport(rep report.Report) {
	fmt.Println("\n=== Session Report ===")
	fmt.Printf("queries: %d (halted %d, errors %d)\n", rep.QueriesProcessed, rep.Halted, rep.Errors)
	fmt.Printf("total cost: $%.2f (baseline $%.2f)\n", rep.TotalCost, rep.BaselineCost)
	fmt.Printf("savings: $%.2f (%.1f%%)\n", rep.Savings, rep.SavingsPercent)
	fmt.Printf("remaining budget: $%.2f\n", rep.BudgetRemaining)
	for _, tier := range config.Tiers() {
		if count := rep.Distribution[tier]; count > 0 {
			fmt.Printf("  %s: %d\n", tier, count)
		}
	}
}

func printTrace(result *reflection.Result) {
	for _, override := range result.Trace.Resolution.Overrides {
		fmt.Fprintf(os.Stderr, "Directive %q overridden by rubric item %s\n",
			override.Directive.Key, override.RubricID)
	}
	for _, iteration := range result.Trace.Iterations {
		status := "FAIL"
		if iteration.Verdict.OverallPass {
			status = "PASS"
		}
		fmt.Fprintf(os.Stderr, "Attempt %d: %s", iteration.Attempt, status)
		if failed := iteration.Verdict.FailedItems(); len(failed) > 0 {
			fmt.Fprintf(os.Stderr, " (%s)", strings.Join(failed, ", "))
		}
		fmt.Fprintln(os.Stderr)
	}
	fmt.Fprintf(os.Stderr, "Terminal: %s after %d attempt(s)\n", result.Terminal, result.Trace.Len())
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func parseDirectives(flags []string) ([]compliance.Directive, error) {
	var directives []compliance.Directive
	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid directive %q, expected key=value", flag)
		}
		directives = append(directives, compliance.Directive{Key: key, Value: value})
	}
	return directives, nil
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithFile(configFile)
	}
	return config.Load()
}

func createAdapters(cfg *config.Config) (map[string]adapter.Adapter, error) {
	adapters := make(map[string]adapter.Adapter)

	if cfg.Credentials.AnthropicAPIKey != "" {
		a, err := adapter.NewAnthropicAdapter(cfg.Credentials.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		adapters["anthropic"] = a
	}

	if cfg.Credentials.OpenAIAPIKey != "" {
		a, err := adapter.NewOpenAIAdapter(cfg.Credentials.OpenAIAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai adapter: %w", err)
		}
		adapters["openai"] = a
	}

	if cfg.Credentials.GoogleAPIKey != "" {
		a, err := adapter.NewGoogleAdapter(cfg.Credentials.GoogleAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google adapter: %w", err)
		}
		adapters["google"] = a
	}

	if cfg.Credentials.DeepSeekAPIKey != "" {
		a, err := adapter.NewDeepSeekAdapter(cfg.Credentials.DeepSeekAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create deepseek adapter: %w", err)
		}
		adapters["deepseek"] = a
	}

	adapters["mock"] = adapter.NewMockAdapter()

	return adapters, nil
}
