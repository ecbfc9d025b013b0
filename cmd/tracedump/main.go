// tracedump prints the step traffic recorded by a controller session: per
// step, the commands sent and the frames that came back.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/trace"
)

func main() {
	var (
		dir      = flag.String("dir", "", "trace directory containing steps-*.jsonl.zst")
		fromTick = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "missing -dir")
		os.Exit(2)
	}

	files, err := listTraceFiles(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list traces:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no trace files found in", *dir)
		os.Exit(1)
	}

	var steps, errors uint64
	for _, path := range files {
		entries, err := trace.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range entries {
			if e.Tick < *fromTick {
				continue
			}
			if *toTick != 0 && e.Tick > *toTick {
				break
			}
			steps++
			if e.Error != "" {
				errors++
			}
			printEntry(e)
		}
	}
	fmt.Printf("%d steps, %d with errors\n", steps, errors)
}

func listTraceFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "steps-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func printEntry(e trace.Entry) {
	cmds := map[string]int{}
	for _, c := range e.Commands {
		cmds[c.Type]++
	}
	frames := map[string]int{}
	for _, f := range e.Frames {
		t := protocol.FrameType(f)
		if t == "" {
			t = "?"
		}
		frames[t]++
	}
	line := fmt.Sprintf("tick=%d commands=%s frames=%s", e.Tick, countString(cmds), countString(frames))
	if e.Error != "" {
		line += " error=" + e.Error
	}
	fmt.Println(line)
}

func countString(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, ",")
}
