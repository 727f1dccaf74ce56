package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hordesim.ai/internal/persistence/archive"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "runs":
			runsCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "remote-runs":
			remoteRunsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "worlds"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

func runsCmd(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	asJSON := fs.Bool("json", false, "print one JSON record per line")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	recs, err := archive.List(filepath.Join(*dataDir, "worlds", *worldID, "archives"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "archive:", err)
		os.Exit(1)
	}
	if *asJSON {
		for _, r := range recs {
			printJSON(os.Stdout, r)
		}
		return
	}
	printRuns(os.Stdout, recs)
}

func printRuns(out io.Writer, recs []archive.RunRecord) {
	for _, r := range recs {
		state := "open"
		if r.Ended {
			state = "ended"
		}
		fmt.Fprintf(out, "%s ticks=%d..%d wave=%d level=%d kills=%d peak_enemies=%d min_throttle=%.2f controls=%d/%d %s\n",
			r.RunID, r.StartTick, r.EndTick, r.MaxWave, r.MaxLevel, r.Kills, r.PeakEnemies, r.MinThrottle, r.Controls-r.Rejected, r.Controls, state)
	}
}

func printJSON(out io.Writer, v any) {
	b, _ := json.Marshal(v)
	fmt.Fprintln(out, string(b))
}
