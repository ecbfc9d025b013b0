// scenegen connects to a host build, furnishes a room procedurally and
// prints the resulting occupancy grid.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"roomcraft.ai/internal/catalog"
	"roomcraft.ai/internal/controller"
	"roomcraft.ai/internal/occupancy"
	"roomcraft.ai/internal/procgen"
	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/trace"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "host ws url")
		name     = flag.String("name", "scenegen", "controller name")
		catPath  = flag.String("catalog", "models.json", "model catalog json")
		rulePath = flag.String("rules", "", "arrangement rules yaml (empty = defaults)")
		roomType = flag.String("room", "kitchen", "room type to furnish")
		wallName = flag.String("wall", "north", "wall to chain arrangements along")
		center   = flag.String("center", "", "extra freestanding category at the room center")
		cellSize = flag.Float64("cell", 0.5, "occupancy grid cell size")
		seed     = flag.Int64("seed", 1, "arrangement seed")
		traceDir = flag.String("trace", "", "record step traces to this directory")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[scenegen] ", log.LstdFlags|log.Lmicroseconds)

	lib, err := catalog.Load(*catPath)
	if err != nil {
		logger.Fatalf("catalog: %v", err)
	}
	logger.Printf("catalog %s digest=%.12s models=%d", *catPath, lib.Digest, len(lib.Records()))
	rules, err := procgen.LoadRules(*rulePath)
	if err != nil {
		logger.Fatalf("rules: %v", err)
	}
	wall, err := procgen.ParseWall(*wallName)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	opts := controller.Options{Logger: logger}
	if *traceDir != "" {
		opts.Trace = trace.NewRecorder(*traceDir)
	}
	ctrl, err := controller.Dial(*url, *name, opts)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer ctrl.Close()

	grid := occupancy.NewMap()
	comp := procgen.NewComposer(lib, &rules, ctrl.IDs(), *seed, logger)
	ctrl.Attach(grid)
	ctrl.Attach(comp)

	// First step delivers the scene regions both add-ons wait for.
	if _, err := ctrl.Step(); err != nil {
		logger.Fatalf("step: %v", err)
	}

	chain, err := comp.LateralArrangement(wall, *roomType, 0)
	if err != nil {
		logger.Fatalf("lateral arrangement: %v", err)
	}
	for _, arr := range chain {
		length, depth := arr.Footprint()
		logger.Printf("placed %s (%.2f x %.2f) along the %s wall", arr.Category(), length, depth, wall)
	}
	if *center != "" {
		rec, err := comp.VerticalArrangement(*center, protocol.Vec3{}, 0, 0)
		if err != nil {
			logger.Fatalf("center arrangement: %v", err)
		}
		if rec == nil {
			logger.Printf("no %s model fits the room center", *center)
		} else {
			free := &procgen.Freestanding{Record: rec}
			w, d := free.Footprint()
			p := free.PlacementPosition(protocol.Vec3{})
			logger.Printf("placed %s (%.2f x %.2f) at (%.2f, %.2f)", rec.Name, w, d, p.X, p.Z)
		}
	}
	// Second step executes the placements on the host.
	if _, err := ctrl.Step(); err != nil {
		logger.Fatalf("step: %v", err)
	}

	// Probe the furnished room and build the grid from the results.
	if err := grid.Generate(*cellSize); err != nil {
		logger.Fatalf("generate: %v", err)
	}
	if _, err := ctrl.Step(); err != nil {
		logger.Fatalf("step: %v", err)
	}

	printGrid(logger, grid)
}

func printGrid(logger *log.Logger, grid *occupancy.Map) {
	nx, nz := grid.Dims()
	logger.Printf("occupancy grid %dx%d", nx, nz)
	for j := nz - 1; j >= 0; j-- {
		var row strings.Builder
		for i := 0; i < nx; i++ {
			c, err := grid.At(i, j)
			if err != nil {
				logger.Fatalf("at(%d,%d): %v", i, j, err)
			}
			switch c {
			case occupancy.Free:
				row.WriteByte('.')
			case occupancy.Occupied:
				row.WriteByte('#')
			default:
				row.WriteByte(' ')
			}
		}
		logger.Printf("%s", row.String())
	}
}
