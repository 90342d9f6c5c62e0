package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/brennhill/replayverify/cmd/replayctl/output"
	"github.com/brennhill/replayverify/internal/config"
	"github.com/brennhill/replayverify/internal/contract"
	"github.com/brennhill/replayverify/internal/judge"
	"github.com/brennhill/replayverify/internal/rcontext"
	"github.com/brennhill/replayverify/internal/replay"
	"github.com/brennhill/replayverify/internal/report"
	"github.com/brennhill/replayverify/internal/route"
	"github.com/brennhill/replayverify/internal/session"
	"github.com/brennhill/replayverify/internal/template"
)

type replayFlags struct {
	contract          string
	output            string
	format            string
	threshold         float64
	noDynamic         bool
	failOnThreshold   bool
	strict            bool
	tolerant          bool
	preloadTemplates  bool
	performance       bool
	filterMethods     []string
	filterRoutes      []string
	filterTags        []string
	filterSessionTags []string
	targetBaseURL     string
}

func newReplayCmd() *cobra.Command {
	var f replayFlags

	cmd := &cobra.Command{
		Use:   "replay <sessionFile>",
		Short: "Replay a recorded session and report compatibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args[0], f)
		},
	}

	f.format = "text"

	flags := cmd.Flags()
	flags.StringVar(&f.contract, "contract", "", "OpenAPI-subset contract file to synthesize responses from")
	flags.StringVar(&f.output, "output", "", "write the report to this path instead of stdout")
	flags.Var(newFormatFlag(&f.format), "format", "report format: json or text")
	flags.Float64Var(&f.threshold, "threshold", 100, "minimum compatibilityScore (0-100) required by --fail-on-threshold")
	flags.BoolVar(&f.noDynamic, "no-dynamic", false, "disable template-synthesized responses; always call the live target")
	flags.BoolVar(&f.failOnThreshold, "fail-on-threshold", false, "exit nonzero when compatibilityScore falls below --threshold")
	flags.BoolVar(&f.strict, "strict", false, "use the strict comparison mode (no tolerance)")
	flags.BoolVar(&f.tolerant, "tolerant", false, "use the tolerant comparison mode (maximum tolerance)")
	flags.BoolVar(&f.preloadTemplates, "preload-templates", false, "compile every contract route's template before replay begins")
	flags.BoolVar(&f.performance, "performance", false, "include the performance block in the report")
	flags.StringSliceVar(&f.filterMethods, "filter-methods", nil, "only replay interactions with one of these HTTP methods")
	flags.StringSliceVar(&f.filterRoutes, "filter-routes", nil, "only replay interactions whose path matches one of these glob patterns")
	flags.StringSliceVar(&f.filterTags, "filter-tags", nil, "only replay interactions carrying one of these tags")
	flags.StringSliceVar(&f.filterSessionTags, "filter-session-tags", nil, "only replay sessions carrying one of these tags")
	flags.StringVar(&f.targetBaseURL, "target", "", "base URL of the live target for non-synthesized requests")

	return cmd
}

func runReplay(sessionFile string, f replayFlags) error {
	cfg, err := config.LoadFile(config.Defaults(), flagConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = config.LoadEnv(cfg, nil)
	applyReplayFlags(&cfg, f)

	s, err := session.Load(sessionFile)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	resolver := route.NewResolver()
	var templates []contract.RouteTemplate
	if cfg.ContractFile != "" {
		templates, err = importContract(cfg.ContractFile, resolver)
		if err != nil {
			return fmt.Errorf("import contract: %w", err)
		}
	}

	engine := replay.NewEngine()
	engine.Resolver = resolver
	engine.Context = rcontext.New(rcontext.WithLogger(logger))
	engine.Tolerance = cfg.ToleranceConfig()
	engine.Judge = judge.Config{Mode: cfg.JudgeMode(), UnifyAdditions: cfg.UnifyAdditions}
	engine.TargetBaseURL = cfg.TargetBaseURL
	engine.UseDynamicResponses = cfg.UseDynamicResponses
	engine.Logger = loggerOrNop()

	if f.preloadTemplates {
		if err := preloadTemplates(engine.Compiler, resolver, templates); err != nil {
			return fmt.Errorf("preload templates: %w", err)
		}
	}

	var filter *replay.Filter
	if len(cfg.FilterMethods) > 0 || len(cfg.FilterRoutes) > 0 || len(cfg.FilterTags) > 0 || len(cfg.FilterSessionTags) > 0 {
		filter = &replay.Filter{
			Methods:      cfg.FilterMethods,
			RoutePattern: cfg.FilterRoutes,
			Tags:         cfg.FilterTags,
			SessionTags:  cfg.FilterSessionTags,
		}
	}

	start := time.Now()
	result, err := engine.Run(context.Background(), s, filter)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	elapsed := time.Since(start)

	matched, _, _ := filter.Apply(s)
	requests := make([]report.RequestRef, len(matched))
	for i, in := range matched {
		requests[i] = report.RequestRef{Method: in.Request.Method, Path: in.Request.Path}
	}

	rep := report.Build(s.SessionID, cfg.ContractFile, time.Now(), cfg.JudgeMode(), result, requests)
	if f.performance {
		metrics := resolver.Metrics()
		rep.Performance = &report.Performance{
			TotalDurationNanos:   elapsed.Nanoseconds(),
			AverageDurationNanos: metrics.AverageRenderNanos(),
			CacheHitRatio:        cacheHitRatio(metrics),
		}
	}

	formatter, err := output.ForFormat(f.format)
	if err != nil {
		return err
	}

	w := os.Stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("open --output: %w", err)
		}
		defer file.Close()
		if err := formatter.Format(file, &rep); err != nil {
			return err
		}
	} else if err := formatter.Format(w, &rep); err != nil {
		return err
	}

	if cfg.JudgeMode() == judge.ModeStrict && result.Summary.Incompatible > 0 {
		return fmt.Errorf("strict mode: %d incompatible interaction(s)", result.Summary.Incompatible)
	}
	if f.failOnThreshold && result.Summary.CompatibilityScore < f.threshold {
		return fmt.Errorf("compatibilityScore %.1f is below threshold %.1f", result.Summary.CompatibilityScore, f.threshold)
	}
	return nil
}

func applyReplayFlags(cfg *config.RunConfig, f replayFlags) {
	if f.contract != "" {
		cfg.ContractFile = f.contract
	}
	if f.targetBaseURL != "" {
		cfg.TargetBaseURL = f.targetBaseURL
	}
	if f.noDynamic {
		cfg.UseDynamicResponses = false
	}
	if f.strict {
		cfg.ComparisonMode = "strict"
	} else if f.tolerant {
		cfg.ComparisonMode = "tolerant"
	}
	if len(f.filterMethods) > 0 {
		cfg.FilterMethods = f.filterMethods
	}
	if len(f.filterRoutes) > 0 {
		cfg.FilterRoutes = f.filterRoutes
	}
	if len(f.filterTags) > 0 {
		cfg.FilterTags = f.filterTags
	}
	if len(f.filterSessionTags) > 0 {
		cfg.FilterSessionTags = f.filterSessionTags
	}
}

func importContract(path string, resolver *route.Resolver) ([]contract.RouteTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := contract.Parse(data)
	if err != nil {
		return nil, err
	}
	return contract.NewImporter().Import(doc, resolver)
}

// preloadTemplates compiles every imported route's body template up
// front, so the first replayed interaction against each route doesn't
// pay compile latency inline (spec §6.3's --preload-templates flag).
func preloadTemplates(compiler *template.Compiler, resolver *route.Resolver, templates []contract.RouteTemplate) error {
	for _, t := range templates {
		if _, err := compiler.Compile(t.Body); err != nil {
			return fmt.Errorf("%s %s: %w", t.Method, t.PathPattern, err)
		}
		resolver.RecordTemplateCompilation()
	}
	return nil
}

func cacheHitRatio(m route.Metrics) float64 {
	total := m.CacheHits + m.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(m.CacheHits) / float64(total)
}

// formatFlag is a pflag.Value so --format rejects an unknown value at
// parse time rather than surfacing it only once replay has finished.
type formatFlag struct{ dest *string }

func newFormatFlag(dest *string) *formatFlag { return &formatFlag{dest: dest} }

func (f *formatFlag) String() string { return *f.dest }

func (f *formatFlag) Set(v string) error {
	if _, err := output.ForFormat(v); err != nil {
		return err
	}
	*f.dest = v
	return nil
}

func (f *formatFlag) Type() string { return "format" }

var _ pflag.Value = (*formatFlag)(nil)

func loggerOrNop() *zap.Logger {
	if logger != nil {
		return logger
	}
	return zap.NewNop()
}
