// Command mintyml converts MinTyML files to HTML. With no inputs it
// reads from stdin and writes to stdout; with file or directory
// arguments it converts each .mty/.mintyml file to a sibling .html
// file, or into the tree given by --out.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"

	mintyml "github.com/youngspe/mintyml-go"
	"github.com/youngspe/mintyml-go/document"
	"github.com/youngspe/mintyml-go/grammar"
	"github.com/youngspe/mintyml-go/infer"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mintyml:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "mintyml",
		Usage:     "convert MinTyML documents to HTML",
		ArgsUsage: "[file|dir ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output `dir` (or file when converting a single input)",
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "descend into directories",
			},
			&cli.IntFlag{
				Name:  "indent",
				Usage: "pretty-print with `n` spaces per level",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "shorthand for --indent 2",
			},
			&cli.BoolFlag{
				Name:  "xml",
				Usage: "emit XHTML-compatible output",
			},
			&cli.BoolFlag{
				Name:  "complete-page",
				Usage: "wrap output in doctype/html/head/body",
			},
			&cli.StringFlag{
				Name:  "lang",
				Usage: "lang attribute for --complete-page",
			},
			&cli.BoolFlag{
				Name:  "forgiving",
				Usage: "write best-effort output for files with syntax errors",
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop at the first file that fails",
			},
			&cli.IntFlag{
				Name:  "jobs",
				Value: runtime.NumCPU(),
				Usage: "number of files converted concurrently",
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "print the document tree instead of converting",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "report each converted file and its size",
			},
		},
		Action: run,
	}
}

func configFrom(c *cli.Context) mintyml.OutputConfig {
	cfg := mintyml.OutputConfig{
		Indent:       c.Int("indent"),
		XML:          c.Bool("xml"),
		CompletePage: c.Bool("complete-page"),
		Lang:         c.String("lang"),
	}
	if c.Bool("pretty") && cfg.Indent == 0 {
		cfg.Indent = 2
	}
	return cfg
}

func run(c *cli.Context) error {
	cfg := configFrom(c)

	if c.NArg() == 0 {
		return convertStream(c, cfg, os.Stdin, os.Stdout)
	}

	inputs, err := collectInputs(c.Args().Slice(), c.Bool("recursive"))
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no .mty or .mintyml files found")
	}
	if c.Bool("dump") {
		// dumps share stdout, so they run one file at a time
		for _, input := range inputs {
			src, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			if err := dumpTree(string(src), os.Stdout); err != nil {
				return err
			}
		}
		return nil
	}
	return convertFiles(c, cfg, inputs)
}

func convertStream(c *cli.Context, cfg mintyml.OutputConfig, in io.Reader, out io.Writer) error {
	src, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if c.Bool("dump") {
		return dumpTree(string(src), out)
	}
	html, err := convertSource(string(src), cfg, c.Bool("forgiving"))
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, html)
	return err
}

func convertSource(src string, cfg mintyml.OutputConfig, forgiving bool) (string, error) {
	if forgiving {
		out, err := mintyml.ConvertForgiving(src, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "mintyml:", err)
		}
		return out, nil
	}
	return mintyml.Convert(src, cfg)
}

// sourceExts are the file extensions treated as MinTyML input.
var sourceExts = map[string]bool{".mty": true, ".mintyml": true}

func collectInputs(args []string, recursive bool) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		if !recursive {
			entries, err := os.ReadDir(arg)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() && sourceExts[filepath.Ext(e.Name())] {
					inputs = append(inputs, filepath.Join(arg, e.Name()))
				}
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && sourceExts[filepath.Ext(path)] {
				inputs = append(inputs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return inputs, nil
}

func outputPath(input, outDir string, single bool) string {
	if outDir != "" && single && filepath.Ext(outDir) != "" {
		return outDir
	}
	base := strings.TrimSuffix(input, filepath.Ext(input)) + ".html"
	if outDir == "" {
		return base
	}
	return filepath.Join(outDir, filepath.Base(base))
}

func convertFiles(c *cli.Context, cfg mintyml.OutputConfig, inputs []string) error {
	jobs := c.Int("jobs")
	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(inputs) {
		jobs = len(inputs)
	}

	type result struct {
		input, output string
		size          int
		err           error
	}

	work := make(chan string)
	results := make(chan result)
	// done aborts the pipeline: the producer stops feeding work and the
	// workers skip inputs already queued.
	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for input := range work {
				select {
				case <-done:
					continue
				default:
				}
				out, size, err := convertFile(c, cfg, input, len(inputs) == 1)
				results <- result{input: input, output: out, size: size, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(work)
		for _, input := range inputs {
			select {
			case work <- input:
			case <-done:
				return
			}
		}
	}()

	failFast := c.Bool("fail-fast")
	var failed int
	var firstInput string
	var firstErr error
	for res := range results {
		if res.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "mintyml: %s: %v\n", res.input, res.err)
			if firstErr == nil {
				firstInput, firstErr = res.input, res.err
			}
			if failFast {
				stop()
			}
			continue
		}
		if c.Bool("verbose") {
			fmt.Fprintf(os.Stderr, "%s -> %s (%s)\n",
				res.input, res.output, humanize.Bytes(uint64(res.size)))
		}
	}
	if failFast && firstErr != nil {
		return fmt.Errorf("%s: %w", firstInput, firstErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	return nil
}

func convertFile(c *cli.Context, cfg mintyml.OutputConfig, input string, single bool) (string, int, error) {
	src, err := os.ReadFile(input)
	if err != nil {
		return "", 0, err
	}
	html, err := convertSource(string(src), cfg, c.Bool("forgiving"))
	if err != nil {
		return "", 0, err
	}
	out := outputPath(input, c.String("out"), single)
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", 0, err
		}
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return "", 0, err
	}
	return out, len(html), nil
}

// dumpTree prints the resolved document tree, for debugging tag
// inference and paragraph grouping.
func dumpTree(src string, w io.Writer) error {
	tree, err := grammar.Parse(src)
	if err != nil {
		return err
	}
	doc, errs := document.Build(src, tree)
	infer.Apply(doc, infer.Options{})
	p := pp.New()
	p.SetOutput(w)
	p.SetExportedOnly(true)
	if _, err := p.Println(doc); err != nil {
		return err
	}
	for _, se := range errs {
		fmt.Fprintln(os.Stderr, "mintyml:", se)
	}
	return nil
}
