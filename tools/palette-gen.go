package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"visionstream/pkg/palette"
)

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "dump":
		return runDump(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintln(stderr, "unknown command:", args[0])
		printUsage(stderr)
		return 2
	}
}

// runDump prints the deterministic segmentation colors for a target count,
// one hex value per line. Useful for checking what a scene with n objects
// will actually render as.
func runDump(args []string, stdout io.Writer, stderr io.Writer) int {
	fdump := flag.NewFlagSet("dump", flag.ContinueOnError)
	fdump.SetOutput(stderr)

	count := fdump.Int("n", 50, "number of colors to generate")

	if err := fdump.Parse(args); err != nil {
		return 2
	}
	if *count <= 0 {
		fmt.Fprintln(stderr, "-n must be positive, got", *count)
		return 2
	}

	p := palette.New()
	p.Generate(*count)

	for i := 0; i < p.Len(); i++ {
		c := p.Color(i)
		fmt.Fprintf(stdout, "%3d  %s  (%3d,%3d,%3d)\n", i, c.Hex(), c.R, c.G, c.B)
	}
	fmt.Fprintf(stdout, "generated %d color(s) for n=%d\n", p.Len(), *count)
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  go run tools/palette-gen.go dump [-n count]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  dump   print the deterministic segmentation palette")
}
