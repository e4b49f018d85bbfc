// mptest runs the compiler's golden-file suite: every testdata/*.pas
// source is compiled in process and the instruction stream is compared
// against the matching .vm file. A small hash cache skips files whose
// source and golden are both unchanged since the last green run.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/AlaaZreekie/minipascal-compiler/pkg/codegen"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/config"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/lexer"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/parser"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/semantic"
	"github.com/AlaaZreekie/minipascal-compiler/pkg/util"
)

type FileResult struct {
	File    string `json:"file"`
	Status  string `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string `json:"message,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

type cacheEntry struct {
	SourceHash string `json:"source_hash"`
	GoldenHash string `json:"golden_hash"`
}

var (
	testFiles = flag.String("test-files", "testdata/*.pas", "Glob pattern(s) for files to test (space-separated).")
	skipFiles = flag.String("skip-files", "", "Files to skip (space-separated).")
	update    = flag.Bool("update", false, "Rewrite the golden .vm files from current compiler output.")
	cacheFile = flag.String("cache", ".mptest_cache.json", "Hash cache; unchanged green tests are skipped.")
	noCache   = flag.Bool("no-cache", false, "Ignore the hash cache and recompile everything.")
	jobs      = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose   = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

// compileMu serializes compilation: the diagnostic source registry is
// process-global.
var compileMu sync.Mutex

func main() {
	flag.Parse()
	log.SetFlags(0)
	if *jobs < 1 {
		*jobs = 1
	}

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	cache := loadCache(*cacheFile)

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file, cache)
			}
		}()
	}
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*FileResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })

	printSummary(results)
	saveCache(*cacheFile, cache, results)
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			os.Exit(1)
		}
	}
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func goldenPath(sourceFile string) string {
	return strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile)) + ".vm"
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

// compile runs the full pipeline on one source file and returns the
// rendered instruction stream.
func compile(sourceFile string) (string, error) {
	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return "", err
	}

	compileMu.Lock()
	defer compileMu.Unlock()

	cfg := config.NewConfig()
	cfg.SetAllWarnings(false)
	runes := []rune(string(source))
	util.SetSourceFiles([]util.SourceFileRecord{{Name: sourceFile, Content: runes}})

	tokens := lexer.NewLexer(runes, 0, cfg).Tokenize()
	root := parser.NewParser(tokens, cfg).Parse()

	syms, errs := semantic.NewAnalyzer(cfg).Analyze(root)
	if len(errs) > 0 {
		return "", fmt.Errorf("semantic analysis failed: %v", errs[0])
	}
	prog, err := codegen.New(syms).Generate(root)
	if err != nil {
		return "", err
	}
	return prog.String(), nil
}

func testFile(file string, cache map[string]cacheEntry) *FileResult {
	golden := goldenPath(file)

	sourceHash, err := hashFile(file)
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to hash source: %v", err)}
	}

	if *update {
		output, err := compile(file)
		if err != nil {
			return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Compile failed: %v", err)}
		}
		if err := os.WriteFile(golden, []byte(output), 0o644); err != nil {
			return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to write golden: %v", err)}
		}
		return &FileResult{File: file, Status: "PASS", Message: "Golden updated"}
	}

	goldenData, err := os.ReadFile(golden)
	if err != nil {
		return &FileResult{File: file, Status: "SKIP", Message: fmt.Sprintf("No golden file %s (run with -update)", golden)}
	}
	goldenHash, err := hashFile(golden)
	if err != nil {
		return &FileResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to hash golden: %v", err)}
	}

	if !*noCache {
		if entry, ok := cache[file]; ok && entry.SourceHash == sourceHash && entry.GoldenHash == goldenHash {
			if *verbose {
				log.Printf("[%s] unchanged since last green run", file)
			}
			return &FileResult{File: file, Status: "PASS", Message: "Cached"}
		}
	}

	output, err := compile(file)
	if err != nil {
		return &FileResult{File: file, Status: "FAIL", Message: fmt.Sprintf("Compile failed: %v", err)}
	}
	if diff := cmp.Diff(string(goldenData), output); diff != "" {
		return &FileResult{File: file, Status: "FAIL", Message: "Output differs from golden", Diff: diff}
	}
	return &FileResult{File: file, Status: "PASS"}
}

func loadCache(path string) map[string]cacheEntry {
	cache := make(map[string]cacheEntry)
	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	if json.Unmarshal(data, &cache) != nil {
		return make(map[string]cacheEntry)
	}
	return cache
}

// saveCache records hashes for every passing file so the next run can
// skip them.
func saveCache(path string, cache map[string]cacheEntry, results []*FileResult) {
	for _, r := range results {
		if r.Status != "PASS" {
			delete(cache, r.File)
			continue
		}
		sourceHash, err1 := hashFile(r.File)
		goldenHash, err2 := hashFile(goldenPath(r.File))
		if err1 != nil || err2 != nil {
			continue
		}
		cache[r.File] = cacheEntry{SourceHash: sourceHash, GoldenHash: goldenHash}
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("%s[WARN]%s Could not write cache file %s: %v\n", cYellow, cNone, path, err)
	}
}

func printSummary(results []*FileResult) {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++
		switch r.Status {
		case "PASS":
			if *verbose || r.Message != "" {
				log.Printf("%s[PASS]%s %s %s\n", cGreen, cNone, r.File, r.Message)
			} else {
				log.Printf("%s[PASS]%s %s\n", cGreen, cNone, r.File)
			}
		case "SKIP":
			log.Printf("%s[SKIP]%s %s: %s\n", cYellow, cNone, r.File, r.Message)
		case "FAIL", "ERROR":
			log.Printf("%s[%s]%s %s: %s\n", cRed, r.Status, cNone, r.File, r.Message)
			if r.Diff != "" {
				log.Printf("%s--- golden / +++ got%s\n%s", cCyan, cNone, r.Diff)
			}
		}
	}
	log.Printf("\n%s%d passed, %d failed, %d skipped, %d errors%s (%d total)\n",
		cBold, counts["PASS"], counts["FAIL"], counts["SKIP"], counts["ERROR"], cNone, len(results))
}
