package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/rpcpool/minperf/loadutil"
	"github.com/rpcpool/minperf/xorfilter"
)

func newCmd_XorFilter() *cli.Command {
	return &cli.Command{
		Name:  "xorfilter",
		Usage: "Evaluate a XorFilter8 membership filter.",
		Subcommands: []*cli.Command{
			newCmd_XorFilterEvaluate(),
		},
	}
}

func newCmd_XorFilterEvaluate() *cli.Command {
	return &cli.Command{
		Name:  "evaluate",
		Usage: "Check membership of keys (base-10 uint64s, one per line) against a filter.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "hash", Required: true, Usage: "Path to the filter binary (conventionally hash.bin)."},
			&cli.StringFlag{Name: "keys", Usage: "Path to a newline-delimited (optionally .gz) key file; defaults to stdin."},
			&cli.BoolFlag{Name: "bench", Usage: "Report keys/sec throughput instead of per-key output."},
			&cli.BoolFlag{Name: "describe", Usage: "Print the filter's sidecar manifest (<hash>.meta), if any, before evaluating."},
		},
		Action: cmdXorFilterEvaluate,
	}
}

func cmdXorFilterEvaluate(c *cli.Context) error {
	cache := newFileCache()

	if c.Bool("describe") {
		if err := describeArtifact(c.String("hash")); err != nil {
			return err
		}
	}

	data, err := cache.getOrLoad(c.String("hash"), loadutil.ByteFile)
	if err != nil {
		return fmt.Errorf("loading filter file: %w", err)
	}
	filter, err := xorfilter.Load(data)
	if err != nil {
		return fmt.Errorf("decoding filter: %w", err)
	}
	klog.Infof("loaded xorfilter8: size=%s", humanize.Comma(int64(filter.Size())))

	scanner, closeScanner, err := openKeySource(c.String("keys"))
	if err != nil {
		return err
	}
	defer closeScanner()

	bench := c.Bool("bench")
	start := time.Now()
	var count, hits int64
	for scanner.Scan() {
		raw := scanner.Key()
		key, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			klog.Warningf("skipping non-numeric key %q: %v", raw, err)
			continue
		}
		contains := filter.MayContain(key)
		count++
		if contains {
			hits++
		}
		if !bench {
			fmt.Printf("%d\t%t\n", key, contains)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading keys: %w", err)
	}

	if bench {
		elapsed := time.Since(start)
		var perSec float64
		if elapsed > 0 {
			perSec = float64(count) / elapsed.Seconds()
		}
		fmt.Printf("evaluated %s keys (%s positive) in %s (%s keys/sec)\n",
			humanize.Comma(count), humanize.Comma(hits), elapsed, humanize.Comma(int64(perSec)))
	}
	return nil
}
