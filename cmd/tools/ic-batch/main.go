// cmd/tools/ic-batch/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"deal-compass-workers/internal/common/config"
	"deal-compass-workers/internal/engine/pipeline"
	"deal-compass-workers/internal/engine/presets"

	"gopkg.in/yaml.v3"
)

// batchFile is the deal file layout. Thresholds overlay the configured
// thresholds key by key and apply to every deal in the file.
type batchFile struct {
	Thresholds json.RawMessage `json:"thresholds,omitempty"`
	Deals      []pipeline.Job  `json:"deals"`
}

// Summary is the per-deal line printed unless -full is set.
type Summary struct {
	DealID           string   `json:"dealId"`
	DealName         string   `json:"dealName"`
	Decision         string   `json:"decision"`
	ICScore          int      `json:"icScore"`
	Confidence       string   `json:"confidence"`
	DataCompleteness int      `json:"dataCompleteness"`
	YieldOnCost      float64  `json:"yieldOnCost"`
	UnleveragedIRR   float64  `json:"unleveragedIrr"`
	RedFlags         []string `json:"redFlags"`
}

func main() {
	file := flag.String("file", "", "Deal file (.yaml, .yml or .json)")
	configPath := flag.String("config", "", "Optional config.yaml whose engine section tunes the rubric")
	parallelism := flag.Int("parallelism", 0, "Concurrent evaluations (default engine.batch_parallelism)")
	full := flag.Bool("full", false, "Print full pipeline results instead of summaries")
	out := flag.String("out", "", "Write output to this path instead of stdout")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		flag.Usage()
		os.Exit(1)
	}

	engineCfg := config.DefaultEngineConfig()
	if *configPath != "" {
		cfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
		engineCfg = cfg.Engine
	}
	if *parallelism <= 0 {
		*parallelism = engineCfg.BatchParallelism
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		fatalf("read %s: %v", *file, err)
	}
	rubric := engineCfg.Rubric()
	jobs, err := parseBatch(raw, filepath.Ext(*file), rubric)
	if err != nil {
		fatalf("parse %s: %v", *file, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := evaluate(ctx, pipeline.NewRunner(rubric), jobs, *parallelism)
	if err != nil {
		fatalf("evaluate: %v", err)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	var payload interface{} = summarize(jobs, results)
	if *full {
		payload = results
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fatalf("write output: %v", err)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// parseBatch decodes a deal file. YAML is converted to JSON first so both
// formats share the json field names of the models.
func parseBatch(raw []byte, ext string, rubric *presets.Rubric) ([]pipeline.Job, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		raw = converted
	case ".json":
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}

	var bf batchFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, err
	}
	if len(bf.Deals) == 0 {
		return nil, fmt.Errorf("no deals in file")
	}

	var th *presets.Thresholds
	if len(bf.Thresholds) > 0 {
		merged := rubric.Thresholds
		merged.MinRooms = make(map[string]int, len(rubric.Thresholds.MinRooms))
		for k, v := range rubric.Thresholds.MinRooms {
			merged.MinRooms[k] = v
		}
		if err := json.Unmarshal(bf.Thresholds, &merged); err != nil {
			return nil, fmt.Errorf("thresholds: %w", err)
		}
		if merged.NoGoScore > merged.GoScore {
			return nil, fmt.Errorf("thresholds: noGoScore (%d) exceeds goScore (%d)", merged.NoGoScore, merged.GoScore)
		}
		th = &merged
	}

	for i := range bf.Deals {
		if bf.Deals[i].Deal.ID == "" {
			return nil, fmt.Errorf("deal %d has no id", i)
		}
		bf.Deals[i].Thresholds = th
	}
	return bf.Deals, nil
}

// evaluate fills preset defaults for deals with core inputs and runs the batch.
func evaluate(ctx context.Context, runner *pipeline.Runner, jobs []pipeline.Job, parallelism int) ([]pipeline.Result, error) {
	for i := range jobs {
		jobs[i].Inputs = runner.Prepare(jobs[i].Inputs, jobs[i].Deal.Segment)
	}
	return runner.RunBatch(ctx, jobs, parallelism)
}

func summarize(jobs []pipeline.Job, results []pipeline.Result) []Summary {
	out := make([]Summary, len(results))
	for i, r := range results {
		flags := r.Decision.RedFlags
		if flags == nil {
			flags = []string{}
		}
		out[i] = Summary{
			DealID:           r.DealID,
			DealName:         jobs[i].Deal.Name,
			Decision:         r.Decision.Decision,
			ICScore:          r.Decision.ICScore,
			Confidence:       r.Decision.Confidence,
			DataCompleteness: r.Decision.DataCompleteness,
			YieldOnCost:      r.Owner.YieldOnCost,
			UnleveragedIRR:   r.Owner.UnleveragedIRR,
			RedFlags:         flags,
		}
	}
	return out
}
