package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/rpcpool/minperf/loadutil"
	"github.com/rpcpool/minperf/recsplit"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

func newCmd_RecSplit() *cli.Command {
	return &cli.Command{
		Name:  "recsplit",
		Usage: "Evaluate a RecSplit minimal perfect hash function.",
		Subcommands: []*cli.Command{
			newCmd_RecSplitEvaluate(),
		},
	}
}

func newCmd_RecSplitEvaluate() *cli.Command {
	return &cli.Command{
		Name:      "evaluate",
		Usage:     "Evaluate keys against a settings+hash pair, printing each key's index.",
		ArgsUsage: "",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "settings", Required: true, Usage: "Path to the settings file."},
			&cli.StringFlag{Name: "hash", Required: true, Usage: "Path to the hash file."},
			&cli.StringFlag{Name: "keys", Usage: "Path to a newline-delimited (optionally .gz) key file; defaults to stdin."},
			&cli.IntFlag{Name: "workers", Value: 1, Usage: "Number of goroutines evaluating keys concurrently."},
			&cli.StringFlag{Name: "format", Value: "text", Usage: "Output format: text or json."},
			&cli.BoolFlag{Name: "bench", Usage: "Report keys/sec throughput instead of per-key output."},
			&cli.BoolFlag{Name: "describe", Usage: "Print the hash file's sidecar manifest (<hash>.meta), if any, before evaluating."},
		},
		Action: cmdRecSplitEvaluate,
	}
}

func cmdRecSplitEvaluate(c *cli.Context) error {
	cache := newFileCache()

	if c.Bool("describe") {
		if err := describeArtifact(c.String("hash")); err != nil {
			return err
		}
	}

	settingsBytes, err := cache.getOrLoad(c.String("settings"), loadutil.ByteFile)
	if err != nil {
		return fmt.Errorf("loading settings file: %w", err)
	}
	hashBytes, err := cache.getOrLoad(c.String("hash"), loadutil.ByteFile)
	if err != nil {
		return fmt.Errorf("loading hash file: %w", err)
	}

	settings, err := recsplit.LoadSettings(recsplit.NewBitReader(recsplit.WordsFromBytes(settingsBytes)))
	if err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	evaluator, err := recsplit.LoadEvaluator(recsplit.WordsFromBytes(hashBytes), settings)
	if err != nil {
		return fmt.Errorf("decoding hash function: %w", err)
	}
	klog.Infof("loaded recsplit function: size=%s buckets=%d",
		humanize.Comma(int64(evaluator.Size())), evaluator.BucketCount())

	scanner, closeScanner, err := openKeySource(c.String("keys"))
	if err != nil {
		return err
	}
	defer closeScanner()

	workers := c.Int("workers")
	if workers < 1 {
		workers = 1
	}
	format := c.String("format")
	bench := c.Bool("bench")

	var bar *mpb.Bar
	var progress *mpb.Progress
	if bench {
		progress = mpb.New()
		bar = progress.AddBar(-1,
			mpb.PrependDecorators(decor.Name("evaluating")),
			mpb.AppendDecorators(decor.CurrentNoUnit(" keys")))
	}

	keys := make(chan []byte, 4096)
	results := make(chan string, 4096)

	g, _ := errgroup.WithContext(c.Context)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for key := range keys {
				idx := evaluator.Evaluate(key)
				if bar != nil {
					bar.Increment()
					continue
				}
				results <- formatRecSplitResult(format, key, idx)
			}
			return nil
		})
	}

	var writerDone chan struct{}
	if !bench {
		writerDone = make(chan struct{})
		go func() {
			for line := range results {
				fmt.Println(line)
			}
			close(writerDone)
		}()
	}

	start := time.Now()
	count := int64(0)
	for scanner.Scan() {
		key := append([]byte(nil), scanner.Key()...)
		keys <- key
		count++
	}
	close(keys)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading keys: %w", err)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if !bench {
		close(results)
		<-writerDone
	}
	if bench {
		progress.Wait()
		elapsed := time.Since(start)
		var perSec float64
		if elapsed > 0 {
			perSec = float64(count) / elapsed.Seconds()
		}
		fmt.Printf("evaluated %s keys in %s (%s keys/sec)\n",
			humanize.Comma(count), elapsed, humanize.Comma(int64(perSec)))
	}
	return nil
}

func formatRecSplitResult(format string, key []byte, idx uint64) string {
	if format == "json" {
		b, err := jsonAPI.Marshal(map[string]any{"key": string(key), "index": idx})
		if err != nil {
			b, _ = json.Marshal(map[string]any{"key": string(key), "index": idx})
		}
		return string(b)
	}
	return fmt.Sprintf("%s\t%d", key, idx)
}

func openKeySource(path string) (*loadutil.KeyScanner, func(), error) {
	if path == "" {
		return loadutil.NewStdinKeyScanner(os.Stdin), func() {}, nil
	}
	s, err := loadutil.OpenKeyScanner(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening key file: %w", err)
	}
	return s, func() { s.Close() }, nil
}
