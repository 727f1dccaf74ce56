package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	persistlog "hordesim.ai/internal/persistence/log"
	"hordesim.ai/internal/sim/catalogs"
	"hordesim.ai/internal/sim/tuning"
	"hordesim.ai/internal/sim/world"
)

func main() {
	var (
		eventsDir  = flag.String("events", "", "events dir containing events-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		worldID    = flag.String("world", "", "world id (default: taken from the first run id)")
		seed       = flag.Int64("seed", 0, "seed override (must match the recorded server)")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		verify     = flag.Bool("verify", true, "re-simulate every tick and compare stats")
	)
	flag.Parse()

	if *eventsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}
	files, err := persistlog.Files(*eventsDir, "events")
	if err != nil {
		fmt.Fprintln(os.Stderr, "list events:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no events files found in", *eventsDir)
		os.Exit(1)
	}

	var r *replayer
	if *verify {
		w, err := buildWorld(*configDir, *tuningPath, *worldID, *seed, files[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "world:", err)
			os.Exit(1)
		}
		r = newReplayer(w)
	} else {
		r = newReplayer(nil)
	}
	r.toTick = *toTick

	for _, path := range files {
		if err := persistlog.ReadTicks(path, r.apply); err != nil {
			if err == errStop {
				break
			}
			fmt.Fprintln(os.Stderr, "replay:", err)
			r.report(os.Stdout)
			os.Exit(1)
		}
	}
	r.report(os.Stdout)
	if *verify {
		fmt.Println("replay ok")
	}
}

func buildWorld(configDir, tuningPath, worldID string, seed int64, firstFile string) (*world.World, error) {
	cats, err := catalogs.Load(configDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cats = catalogs.Defaults()
	}
	tp := strings.TrimSpace(tuningPath)
	if tp == "" {
		tp = filepath.Join(configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		tune = tuning.Defaults()
	}
	if seed != 0 {
		tune.Seed = seed
	}
	if worldID == "" {
		worldID, err = firstWorldID(firstFile)
		if err != nil {
			return nil, err
		}
	}
	w, err := world.New(world.ConfigFromTuning(worldID, tune), cats)
	if err != nil {
		return nil, err
	}
	w.SetLogger(log.New(io.Discard, "", 0))
	return w, nil
}

// firstWorldID recovers the world id from the first run id ("<world>-rNNNN").
func firstWorldID(path string) (string, error) {
	var id string
	err := persistlog.ReadTicks(path, func(e world.TickLogEntry) error {
		id = e.RunID
		return errStop
	})
	if err != nil && err != errStop {
		return "", err
	}
	if i := strings.LastIndex(id, "-r"); i > 0 {
		return id[:i], nil
	}
	return "", fmt.Errorf("%s: cannot derive world id from run id %q", path, id)
}
