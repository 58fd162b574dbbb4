// lfconvert converts a point cloud from one storage format to another.
//
// The input may be a sidecar (.xml), a data file with a sidecar next to it,
// or a raw PLY/LAS file whose sidecar is generated on the fly. The output
// format is inferred from the output extension.
//
// Usage:
//
//	lfconvert [flags] input output
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hupe1980/lidarformat"
	"github.com/hupe1980/lidarformat/sidecar"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flagSet := pflag.NewFlagSet("lfconvert", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	logLevel := flagSet.String("log-level", "info", "minimum log level (debug, info, warn, error)")
	jsonLogs := flagSet.Bool("json-logs", false, "write log records as JSON")
	compression := flagSet.String("compression", "none", "compression of binary output (none, zstd, lz4)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stdout, flagSet)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	// A wrong argument count is not a failure: print usage and exit 0.
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() != 2 {
		printUsage(stdout, flagSet)
		return 0
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "error: invalid --log-level %q\n", *logLevel)
		return 2
	}
	comp, ok := sidecar.ParseCompression(*compression)
	if !ok {
		fmt.Fprintf(stderr, "error: invalid --compression %q\n", *compression)
		return 2
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(stderr, handlerOpts)
	if *jsonLogs {
		handler = slog.NewJSONHandler(stderr, handlerOpts)
	}
	store := lidarformat.New(
		lidarformat.WithLogger(lidarformat.NewLogger(handler)),
		lidarformat.WithCompression(comp),
	)

	input, output := flagSet.Arg(0), flagSet.Arg(1)
	start := time.Now()
	res, err := store.Convert(input, output)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Converted %s points to %s (%s, %s)\n",
		humanize.Comma(int64(res.Points)), res.DataPath, res.Format, humanize.Bytes(uint64(res.Bytes)))
	fmt.Fprintf(stdout, "Time: %.3f s\n", time.Since(start).Seconds())
	return 0
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `Usage: lfconvert [flags] input output

Possible input extensions: .xml, .bin, .txt, .asc, .ply, .las, .terrabin
Possible output extensions: .xml (with binary), .bin, .txt, .ply, .las, .terrabin
(every output gets an .xml sidecar next to its data file)

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
