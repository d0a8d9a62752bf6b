// Package main runs reproducible parse/format and LSP memory stability measurements for datapack JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mcdatapack/dpe/internal/diag"
	"github.com/mcdatapack/dpe/internal/format"
	"github.com/mcdatapack/dpe/internal/jsonlang"
	"github.com/mcdatapack/dpe/internal/lsp"
	"github.com/mcdatapack/dpe/internal/project"
)

const (
	setSmall     = "small"
	setTypical   = "typical"
	setLarge     = "large"
	setMalformed = "malformed"

	smallThreshold   = 2 * 1024
	largeThreshold   = 16 * 1024
	maxExternalSmall = 32
	maxExternalType  = 20
	maxExternalLarge = 10
)

type config struct {
	externalRoot    string
	iterations      int
	warmup          int
	lineWidth       int
	jsonPath        string
	memIters        int
	memSampleEvery  int
	memFreeOSMemory bool
}

type corpusFile struct {
	Path      string `json:"path"`
	Set       string `json:"set"`
	Source    string `json:"source"`
	Bytes     int    `json:"bytes"`
	Malformed bool   `json:"malformed"`
}

type sampleStats struct {
	Samples int     `json:"samples"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	MinMS   float64 `json:"min_ms"`
	MaxMS   float64 `json:"max_ms"`
	MeanMS  float64 `json:"mean_ms"`
}

type benchSetReport struct {
	Set          string      `json:"set"`
	Files        int         `json:"files"`
	Iterations   int         `json:"iterations"`
	Samples      int         `json:"samples"`
	SkippedFiles int         `json:"skipped_files,omitempty"`
	Stats        sampleStats `json:"stats"`
}

type memSample struct {
	Iteration int    `json:"iteration"`
	HeapAlloc uint64 `json:"heap_alloc"`
	HeapInuse uint64 `json:"heap_inuse"`
	HeapSys   uint64 `json:"heap_sys"`
	NumGC     uint32 `json:"num_gc"`
}

type memoryReport struct {
	Iterations          int         `json:"iterations"`
	SampleEvery         int         `json:"sample_every"`
	DocCount            int         `json:"doc_count"`
	Samples             []memSample `json:"samples"`
	HeapAllocGrowth     int64       `json:"heap_alloc_growth"`
	HeapInuseGrowth     int64       `json:"heap_inuse_growth"`
	UnboundedGrowthHint bool        `json:"unbounded_growth_hint"`
}

type report struct {
	GeneratedAt  time.Time               `json:"generated_at"`
	GoVersion    string                  `json:"go_version"`
	GOOS         string                  `json:"goos"`
	GOARCH       string                  `json:"goarch"`
	CPUs         int                     `json:"cpus"`
	Config       map[string]any          `json:"config"`
	Corpus       map[string][]corpusFile `json:"corpus"`
	CorpusCounts map[string]int          `json:"corpus_counts"`
	ParseBench   []benchSetReport        `json:"parse_bench"`
	FormatBench  []benchSetReport        `json:"format_bench"`
	Memory       memoryReport            `json:"memory"`
	Warnings     []string                `json:"warnings,omitempty"`
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "perf-report: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.externalRoot, "external-datapack-root", "", "optional path to an unpacked datapack or vanilla data export")
	flag.IntVar(&cfg.iterations, "iterations", 15, "benchmark iterations per file")
	flag.IntVar(&cfg.warmup, "warmup", 2, "warmup iterations per file")
	flag.IntVar(&cfg.lineWidth, "line-width", 100, "formatter line width")
	flag.StringVar(&cfg.jsonPath, "json", "", "optional JSON report output path")
	flag.IntVar(&cfg.memIters, "memory-iterations", 300, "LSP open/change/close loop iterations")
	flag.IntVar(&cfg.memSampleEvery, "memory-sample-every", 25, "memory sample cadence")
	flag.BoolVar(&cfg.memFreeOSMemory, "memory-free-os", false, "call debug.FreeOSMemory before memory samples (slower, less noisy)")
	flag.Parse()
	return cfg
}

func run(cfg config) error {
	switch {
	case cfg.iterations <= 0:
		return errors.New("iterations must be > 0")
	case cfg.warmup < 0:
		return errors.New("warmup must be >= 0")
	case cfg.memIters <= 0:
		return errors.New("memory-iterations must be > 0")
	case cfg.memSampleEvery <= 0:
		return errors.New("memory-sample-every must be > 0")
	}

	ctx := context.Background()
	repoRoot, err := findRepoRoot()
	if err != nil {
		return err
	}
	corpus, warnings, err := buildCorpus(repoRoot, cfg.externalRoot)
	if err != nil {
		return err
	}

	parseBench, err := runBench(corpus, cfg, []string{setSmall, setTypical, setLarge, setMalformed}, benchmarkParse)
	if err != nil {
		return err
	}
	formatBench, err := runBench(corpus, cfg, []string{setSmall, setTypical, setLarge}, func(files []corpusFile, cfg config) ([]time.Duration, int, error) {
		return benchmarkFormat(ctx, files, cfg)
	})
	if err != nil {
		return err
	}
	memBench, err := runLSPMemoryLoop(ctx, repoRoot, corpus, cfg)
	if err != nil {
		return err
	}

	rep := report{
		GeneratedAt:  time.Now().UTC(),
		GoVersion:    runtime.Version(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		CPUs:         runtime.NumCPU(),
		Config:       configJSON(cfg),
		Corpus:       corpus,
		CorpusCounts: mapCorpusCounts(corpus),
		ParseBench:   parseBench,
		FormatBench:  formatBench,
		Memory:       memBench,
		Warnings:     warnings,
	}

	printReport(rep)
	if cfg.jsonPath != "" {
		if err := writeJSON(cfg.jsonPath, rep); err != nil {
			return err
		}
		fmt.Printf("\nJSON report written to %s\n", cfg.jsonPath)
	}
	return nil
}

func buildCorpus(repoRoot, externalRoot string) (map[string][]corpusFile, []string, error) {
	corpus := map[string][]corpusFile{
		setSmall:     {},
		setTypical:   {},
		setLarge:     {},
		setMalformed: {},
	}
	var warnings []string
	counts := map[string]int{}
	limits := map[string]int{setSmall: maxExternalSmall, setTypical: maxExternalType, setLarge: maxExternalLarge}

	add := func(source, path string, size int, malformed bool, limited bool) {
		set := setMalformed
		if !malformed {
			switch {
			case size < smallThreshold:
				set = setSmall
			case size < largeThreshold:
				set = setTypical
			default:
				set = setLarge
			}
		}
		if limited && counts[set] >= limits[set] {
			return
		}
		counts[set]++
		corpus[set] = append(corpus[set], corpusFile{Path: path, Set: set, Source: source, Bytes: size, Malformed: malformed})
	}

	fixtureDirs := []struct {
		dir       string
		malformed bool
	}{
		{filepath.Join(repoRoot, "testdata", "format", "input"), false},
		{filepath.Join(repoRoot, "testdata", "corpus", "json", "valid"), false},
		{filepath.Join(repoRoot, "testdata", "corpus", "json", "invalid"), true},
	}
	for _, fd := range fixtureDirs {
		files, err := walkJSON(fd.dir)
		if err != nil {
			return nil, nil, fmt.Errorf("repo fixtures %s: %w", fd.dir, err)
		}
		for _, f := range files {
			add("repo-fixture", f.Path, f.Bytes, fd.malformed, false)
		}
	}

	if strings.TrimSpace(externalRoot) == "" {
		warnings = append(warnings, "external datapack not provided; typical and large sets are limited to repo fixtures")
	} else {
		abs, err := filepath.Abs(externalRoot)
		if err != nil {
			return nil, nil, err
		}
		files, err := walkJSON(abs)
		if err != nil {
			return nil, nil, fmt.Errorf("walk external-datapack-root: %w", err)
		}
		sort.Slice(files, func(i, j int) bool {
			if files[i].Bytes != files[j].Bytes {
				return files[i].Bytes < files[j].Bytes
			}
			return files[i].Path < files[j].Path
		})
		for _, f := range files {
			src, err := os.ReadFile(f.Path)
			if err != nil {
				return nil, nil, err
			}
			_, diags := jsonlang.Parse(src, nil)
			add("external-datapack", f.Path, f.Bytes, diag.HasErrors(diags), true)
		}
	}
	for _, set := range []string{setTypical, setLarge} {
		if len(corpus[set]) == 0 {
			warnings = append(warnings, "no files in "+set+" set")
		}
	}

	for k := range corpus {
		sort.Slice(corpus[k], func(i, j int) bool { return corpus[k][i].Path < corpus[k][j].Path })
	}
	return corpus, warnings, nil
}

func walkJSON(root string) ([]corpusFile, error) {
	var out []corpusFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		if ext := filepath.Ext(path); ext != ".json" && ext != ".mcmeta" {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, corpusFile{Path: path, Bytes: int(st.Size())})
		return nil
	})
	return out, err
}

func mapCorpusCounts(corpus map[string][]corpusFile) map[string]int {
	out := make(map[string]int, len(corpus))
	for k, files := range corpus {
		out[k] = len(files)
	}
	return out
}

type benchFunc func(files []corpusFile, cfg config) ([]time.Duration, int, error)

func runBench(corpus map[string][]corpusFile, cfg config, sets []string, fn benchFunc) ([]benchSetReport, error) {
	out := make([]benchSetReport, 0, len(sets))
	for _, set := range sets {
		files := corpus[set]
		samples, skipped, err := fn(files, cfg)
		if err != nil {
			return nil, fmt.Errorf("bench %s: %w", set, err)
		}
		out = append(out, benchSetReport{
			Set:          set,
			Files:        len(files),
			Iterations:   cfg.iterations,
			Samples:      len(samples),
			SkippedFiles: skipped,
			Stats:        durationStats(samples),
		})
	}
	return out, nil
}

func benchmarkParse(files []corpusFile, cfg config) ([]time.Duration, int, error) {
	var samples []time.Duration
	for _, f := range files {
		src, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", f.Path, err)
		}
		for range cfg.warmup {
			jsonlang.Parse(src, nil)
		}
		for range cfg.iterations {
			start := time.Now()
			jsonlang.Parse(src, nil)
			samples = append(samples, time.Since(start))
		}
	}
	return samples, 0, nil
}

type parsedFixture struct {
	file  corpusFile
	src   []byte
	root  jsonlang.Node
	diags []diag.Diagnostic
}

func benchmarkFormat(ctx context.Context, files []corpusFile, cfg config) ([]time.Duration, int, error) {
	opts := format.Options{LineWidth: cfg.lineWidth}
	fixtures := make([]parsedFixture, 0, len(files))
	skipped := 0
	for _, f := range files {
		src, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", f.Path, err)
		}
		root, diags := jsonlang.Parse(src, nil)
		if _, err := format.Document(ctx, root, src, diags, opts); err != nil {
			if format.IsErrUnsafeToFormat(err) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("format precheck %s: %w", f.Path, err)
		}
		fixtures = append(fixtures, parsedFixture{file: f, src: src, root: root, diags: diags})
	}

	var samples []time.Duration
	for _, pf := range fixtures {
		for range cfg.warmup {
			if _, err := format.Document(ctx, pf.root, pf.src, pf.diags, opts); err != nil {
				return nil, 0, fmt.Errorf("warmup format %s: %w", pf.file.Path, err)
			}
		}
		for range cfg.iterations {
			start := time.Now()
			if _, err := format.Document(ctx, pf.root, pf.src, pf.diags, opts); err != nil {
				return nil, 0, fmt.Errorf("format %s: %w", pf.file.Path, err)
			}
			samples = append(samples, time.Since(start))
		}
	}
	return samples, skipped, nil
}

// runLSPMemoryLoop cycles corpus documents through a snapshot store backed
// by the scenario datapack, so every open and change runs full analysis.
func runLSPMemoryLoop(ctx context.Context, repoRoot string, corpus map[string][]corpusFile, cfg config) (memoryReport, error) {
	packRoot := filepath.Join(repoRoot, "testdata", "lsp", "scenarios", "datapack")
	proj, err := project.Open(packRoot)
	if err != nil {
		return memoryReport{}, fmt.Errorf("open memory datapack: %w", err)
	}
	store := lsp.NewSnapshotStore(func(ctx context.Context, uri string, src []byte) (lsp.Analysis, error) {
		file, err := lsp.URIToPath(uri)
		if err != nil {
			return lsp.Analysis{}, err
		}
		res := proj.CheckSource(ctx, file, src)
		if res.Err != nil {
			return lsp.Analysis{File: file}, nil
		}
		return lsp.Analysis{File: file, Document: res.Document, Diagnostics: res.Diagnostics}, nil
	})

	type memDoc struct {
		uri    string
		open   []byte
		change []byte
	}
	var docs []memDoc
	for _, set := range []string{setLarge, setTypical, setSmall, setMalformed} {
		for _, f := range corpus[set] {
			if len(docs) >= 4 {
				break
			}
			src, err := os.ReadFile(f.Path)
			if err != nil {
				return memoryReport{}, fmt.Errorf("read memory doc %s: %w", f.Path, err)
			}
			name := fmt.Sprintf("perf_%d_%s", len(docs), filepath.Base(f.Path))
			docs = append(docs, memDoc{
				uri:    lsp.PathToURI(filepath.Join(packRoot, "data", "demo", "loot_table", name)),
				open:   src,
				change: mutateForMemoryLoop(src),
			})
		}
	}
	if len(docs) == 0 {
		return memoryReport{}, errors.New("no memory benchmark documents available")
	}

	samples := make([]memSample, 0, max(1, cfg.memIters/cfg.memSampleEvery))
	recordSample := func(iter int) {
		if cfg.memFreeOSMemory {
			debug.FreeOSMemory()
		} else {
			runtime.GC()
		}
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		samples = append(samples, memSample{
			Iteration: iter,
			HeapAlloc: ms.HeapAlloc,
			HeapInuse: ms.HeapInuse,
			HeapSys:   ms.HeapSys,
			NumGC:     ms.NumGC,
		})
	}

	recordSample(0)
	for iter := 1; iter <= cfg.memIters; iter++ {
		for _, d := range docs {
			if _, err := store.Open(ctx, d.uri, 1, d.open); err != nil {
				return memoryReport{}, fmt.Errorf("memory loop open: %w", err)
			}
			if _, err := store.Change(ctx, d.uri, 2, []lsp.TextDocumentContentChangeEvent{{Text: string(d.change)}}); err != nil {
				return memoryReport{}, fmt.Errorf("memory loop change: %w", err)
			}
			if _, err := store.Change(ctx, d.uri, 3, []lsp.TextDocumentContentChangeEvent{{Text: string(d.open)}}); err != nil {
				return memoryReport{}, fmt.Errorf("memory loop revert: %w", err)
			}
			store.Close(d.uri)
		}
		if iter%cfg.memSampleEvery == 0 || iter == cfg.memIters {
			recordSample(iter)
		}
	}

	rep := memoryReport{
		Iterations:  cfg.memIters,
		SampleEvery: cfg.memSampleEvery,
		DocCount:    len(docs),
		Samples:     samples,
	}
	if len(samples) >= 2 {
		first, last := samples[0], samples[len(samples)-1]
		rep.HeapAllocGrowth = int64Diff(last.HeapAlloc, first.HeapAlloc)
		rep.HeapInuseGrowth = int64Diff(last.HeapInuse, first.HeapInuse)
		rep.UnboundedGrowthHint = isUnboundedGrowthHint(samples)
	}
	return rep, nil
}

func mutateForMemoryLoop(src []byte) []byte {
	// Full-document replacement keeps UTF-16 offsets out of the loop.
	const pad = "\n\n"
	s := string(src)
	if strings.HasSuffix(s, pad) {
		return []byte(strings.TrimRight(s, "\n") + "\n")
	}
	return []byte(strings.TrimRight(s, "\n") + pad)
}

func isUnboundedGrowthHint(samples []memSample) bool {
	if len(samples) < 4 {
		return false
	}
	base, last := samples[0], samples[len(samples)-1]
	const maxExpectedGrowth = 16 << 20 // 16 MiB after forced GC samples
	return int64Diff(last.HeapAlloc, base.HeapAlloc) > maxExpectedGrowth ||
		int64Diff(last.HeapInuse, base.HeapInuse) > maxExpectedGrowth
}

func durationStats(samples []time.Duration) sampleStats {
	if len(samples) == 0 {
		return sampleStats{}
	}
	ns := make([]int64, len(samples))
	var sum int64
	for i, d := range samples {
		ns[i] = d.Nanoseconds()
		sum += ns[i]
	}
	slices.Sort(ns)
	return sampleStats{
		Samples: len(samples),
		P50MS:   nanosToMS(quantile(ns, 0.50)),
		P95MS:   nanosToMS(quantile(ns, 0.95)),
		MinMS:   nanosToMS(ns[0]),
		MaxMS:   nanosToMS(ns[len(ns)-1]),
		MeanMS:  nanosToMS(sum / int64(len(ns))),
	}
}

func quantile(sorted []int64, q float64) int64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*q)]
}

func nanosToMS(ns int64) float64 {
	return float64(ns) / float64(time.Millisecond)
}

func printReport(rep report) {
	fmt.Printf("dpe Performance Report\n")
	fmt.Printf("Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Go: %s | %s/%s | CPUs=%d\n", rep.GoVersion, rep.GOOS, rep.GOARCH, rep.CPUs)
	if ext, ok := rep.Config["external_datapack_root"].(string); ok && ext != "" {
		fmt.Printf("External corpus: %s\n", ext)
	}
	fmt.Println()
	fmt.Println("Corpus sets")
	for _, set := range []string{setSmall, setTypical, setLarge, setMalformed} {
		files := rep.Corpus[set]
		totalBytes := 0
		for _, f := range files {
			totalBytes += f.Bytes
		}
		fmt.Printf("- %-9s files=%3d total=%7d bytes\n", set, len(files), totalBytes)
	}
	if len(rep.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings")
		for _, w := range rep.Warnings {
			fmt.Printf("- %s\n", w)
		}
	}
	fmt.Println()
	printBenchTable("Parse + diagnostics (warm)", rep.ParseBench)
	fmt.Println()
	printBenchTable("Format document (warm, tree prebuilt)", rep.FormatBench)
	fmt.Println()
	printMemoryReport(rep.Memory)
}

func printBenchTable(title string, rows []benchSetReport) {
	fmt.Println(title)
	fmt.Println("set        files samples  p50(ms)  p95(ms)  mean(ms)   min    max  skipped")
	for _, r := range rows {
		fmt.Printf("%-10s %5d %7d %8.3f %8.3f %8.3f %6.3f %6.3f %7d\n",
			r.Set, r.Files, r.Samples, r.Stats.P50MS, r.Stats.P95MS, r.Stats.MeanMS, r.Stats.MinMS, r.Stats.MaxMS, r.SkippedFiles)
	}
}

func printMemoryReport(rep memoryReport) {
	fmt.Println("LSP memory loop (open/change/close)")
	fmt.Printf("iterations=%d sample_every=%d docs=%d\n", rep.Iterations, rep.SampleEvery, rep.DocCount)
	if len(rep.Samples) == 0 {
		fmt.Println("no samples")
		return
	}
	last := rep.Samples[len(rep.Samples)-1]
	fmt.Printf("final heap_alloc=%d heap_inuse=%d heap_sys=%d num_gc=%d\n", last.HeapAlloc, last.HeapInuse, last.HeapSys, last.NumGC)
	fmt.Printf("growth heap_alloc=%d heap_inuse=%d unbounded_growth_hint=%v\n", rep.HeapAllocGrowth, rep.HeapInuseGrowth, rep.UnboundedGrowthHint)
}

func writeJSON(path string, rep report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o600)
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("repository root not found")
		}
		dir = parent
	}
}

func configJSON(cfg config) map[string]any {
	return map[string]any{
		"external_datapack_root": cfg.externalRoot,
		"iterations":             cfg.iterations,
		"warmup":                 cfg.warmup,
		"line_width":             cfg.lineWidth,
		"json":                   cfg.jsonPath,
		"memory_iterations":      cfg.memIters,
		"memory_sample_every":    cfg.memSampleEvery,
		"memory_free_os":         cfg.memFreeOSMemory,
	}
}

func int64Diff(a, b uint64) int64 {
	const maxInt64AsUint64 = (^uint64(0)) >> 1
	if a >= b {
		return int64(min(a-b, maxInt64AsUint64))
	}
	return -int64(min(b-a, maxInt64AsUint64))
}
