package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/Garsondee/robot-arena/internal/arena"
	"github.com/Garsondee/robot-arena/internal/vizserver"
	"github.com/pkg/errors"
	"github.com/ttacon/chalk"
)

type options struct {
	runs     int
	ticks    int
	seedBase int64
	seedStep int64
	width    float64
	height   float64
	load     string
	save     string
	httpAddr string
	verbose  bool
	color    bool
}

type runStats struct {
	runIndex int
	seed     int64

	firstWallTick     int
	firstObstacleTick int
	firstAvoidTick    int
	firstConsumeTick  int

	wallBounces      int
	exclusionBounces int
	obstacleHits     int
	sensorAvoids     int
	whiskerAvoids    int
	consumedAgents   int
	consumedObstacle int
	effectsApplied   int
	effectsExpired   int
	pendingEffects   int

	survivors map[string]struct{}
	snapshot  []string
	summary   string
}

func main() {
	var o options
	flag.IntVar(&o.runs, "runs", 3, "number of headless simulation runs")
	flag.IntVar(&o.ticks, "ticks", 1200, "ticks per run (50 ms each)")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.Float64Var(&o.width, "width", 1200, "arena width")
	flag.Float64Var(&o.height, "height", 800, "arena height")
	flag.StringVar(&o.load, "load", "", "arena file to start from instead of the demo roster")
	flag.StringVar(&o.save, "save", "", "write the final roster of the last run to this file")
	flag.StringVar(&o.httpAddr, "http", "", "serve one real-time arena on this address instead of reporting")
	flag.BoolVar(&o.verbose, "verbose", false, "record per-tick positions and print the full event log")
	flag.BoolVar(&o.color, "color", true, "colour report headings")
	flag.Parse()

	if err := validate(o); err != nil {
		fmt.Println("error:", err)
		return
	}

	if o.httpAddr != "" {
		if err := serve(o); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal(err)
		}
		return
	}

	fmt.Println(paint(o, chalk.Cyan, "=== Headless Arena Report ==="))
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d size=%.0fx%.0f load=%q\n\n",
		o.runs, o.ticks, o.seedBase, o.seedStep, o.width, o.height, o.load)

	all := make([]runStats, 0, o.runs)
	var last *arena.TestSim
	for i := 0; i < o.runs; i++ {
		seed := o.seedBase + int64(i)*o.seedStep
		ts, err := buildSim(o, seed)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		ts.RunTicks(o.ticks)
		stats := collectStats(i+1, seed, ts)
		all = append(all, stats)
		printRun(o, stats)
		if o.verbose {
			fmt.Print(ts.SimLog.Format())
		}
		last = ts
	}

	printAggregate(o, all)

	if o.save != "" && last != nil {
		if err := last.Arena.SaveFile(o.save); err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Println(paint(o, chalk.Green, "saved "+o.save))
	}
}

func validate(o options) error {
	switch {
	case o.runs <= 0:
		return errors.New("-runs must be > 0")
	case o.ticks <= 0:
		return errors.New("-ticks must be > 0")
	case o.width <= 0 || o.height <= 0:
		return errors.New("-width and -height must be > 0")
	}
	return nil
}

// buildSim creates a running arena with the default info-display region,
// populated from -load or the demo roster.
func buildSim(o options, seed int64) (*arena.TestSim, error) {
	opts := []arena.SimOption{
		arena.WithWorldSize(o.width, o.height),
		arena.WithExclusion(arena.DefaultConfig().Exclusion),
		arena.WithSeed(seed),
		arena.WithVerbose(o.verbose),
	}
	if o.load == "" {
		opts = append(opts, arena.WithDemoRoster())
	}
	ts := arena.NewTestSim(opts...)
	if o.load != "" {
		if err := ts.Arena.LoadFile(o.load); err != nil {
			return nil, errors.Wrap(err, "load")
		}
		ts.Arena.Play()
	}
	return ts, nil
}

// buildServeSim is buildSim for real-time serving. Nothing reads the event
// log while serving, so recording is switched off.
func buildServeSim(o options) (*arena.TestSim, error) {
	ts, err := buildSim(o, o.seedBase)
	if err != nil {
		return nil, err
	}
	ts.Arena.SetRecorder(nil)
	return ts, nil
}

// serve runs a single arena in real time behind the viz server until
// interrupted.
func serve(o options) error {
	ts, err := buildServeSim(o)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := arena.NewRunner(ts.Arena)
	svc := vizserver.NewService(o.httpAddr, r, os.Stdout)
	go func() {
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Println("runner:", err)
		}
	}()
	err = svc.ListenAndServe(ctx)

	if o.save != "" {
		r.Do(func(a *arena.Arena) {
			if serr := a.SaveFile(o.save); serr != nil {
				log.Println("save:", serr)
			}
		})
	}
	return err
}

func collectStats(runIndex int, seed int64, ts *arena.TestSim) runStats {
	entries := ts.SimLog.Entries()
	survivors := map[string]struct{}{}
	for _, a := range ts.Arena.Agents() {
		survivors[a.Name()] = struct{}{}
	}
	expired := 0
	applied := 0
	for _, e := range entries {
		if e.Category != "effect" {
			continue
		}
		if e.Value == "target gone" {
			expired++
		} else {
			applied++
		}
	}
	return runStats{
		runIndex:          runIndex,
		seed:              seed,
		firstWallTick:     firstTick(entries, "wall", ""),
		firstObstacleTick: firstTick(entries, "obstacle", ""),
		firstAvoidTick:    minTick(firstTick(entries, "sensor", "avoid"), firstTick(entries, "whisker", "")),
		firstConsumeTick:  firstTick(entries, "predator", ""),
		wallBounces:       len(ts.SimLog.Filter("wall", "")),
		exclusionBounces:  ts.SimLog.CountCategory("exclusion", "bounce"),
		obstacleHits:      len(ts.SimLog.Filter("obstacle", "")),
		sensorAvoids:      ts.SimLog.CountCategory("sensor", "avoid"),
		whiskerAvoids:     len(ts.SimLog.Filter("whisker", "")),
		consumedAgents:    ts.SimLog.CountCategory("predator", "consume_agent"),
		consumedObstacle:  ts.SimLog.CountCategory("predator", "consume_obstacle"),
		effectsApplied:    applied,
		effectsExpired:    expired,
		pendingEffects:    ts.Arena.PendingEffects(),
		survivors:         survivors,
		snapshot:          ts.Arena.Snapshot(),
		summary:           ts.SimLog.Summary(ts.Arena),
	}
}

// firstTick returns the tick of the first entry in category (and key, if
// given), or -1.
func firstTick(entries []arena.Event, category, key string) int {
	for _, e := range entries {
		if e.Category != category {
			continue
		}
		if key == "" || e.Key == key {
			return e.Tick
		}
	}
	return -1
}

// minTick is min over ticks that occurred (>= 0); -1 if neither did.
func minTick(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func printRun(o options, rs runStats) {
	fmt.Println(paint(o, chalk.Yellow, fmt.Sprintf("--- Run %d (seed=%d) ---", rs.runIndex, rs.seed)))
	fmt.Printf("phase_markers: first_wall=%d first_obstacle=%d first_avoid=%d first_consume=%d\n",
		rs.firstWallTick, rs.firstObstacleTick, rs.firstAvoidTick, rs.firstConsumeTick)
	fmt.Printf("bounces: wall=%d exclusion=%d\n", rs.wallBounces, rs.exclusionBounces)
	fmt.Printf("interactions: obstacle=%d sensor_avoid=%d whisker_avoid=%d\n",
		rs.obstacleHits, rs.sensorAvoids, rs.whiskerAvoids)
	consumed := fmt.Sprintf("predator: consumed_robots=%d consumed_obstacles=%d", rs.consumedAgents, rs.consumedObstacle)
	if rs.consumedAgents > 0 {
		consumed = paint(o, chalk.Red, consumed)
	}
	fmt.Println(consumed)
	fmt.Printf("effects: applied=%d target_gone=%d pending=%d\n",
		rs.effectsApplied, rs.effectsExpired, rs.pendingEffects)
	fmt.Printf("survivors: %s\n", joinSet(rs.survivors))
	for _, l := range rs.snapshot {
		fmt.Println("  " + l)
	}
	fmt.Println()
}

func printAggregate(o options, all []runStats) {
	var wall, excl, obst, sensor, whisker, consumed int
	consumeTicks := make([]int, 0, len(all))
	survival := map[string]int{}
	for _, rs := range all {
		wall += rs.wallBounces
		excl += rs.exclusionBounces
		obst += rs.obstacleHits
		sensor += rs.sensorAvoids
		whisker += rs.whiskerAvoids
		consumed += rs.consumedAgents
		if rs.firstConsumeTick >= 0 {
			consumeTicks = append(consumeTicks, rs.firstConsumeTick)
		}
		for name := range rs.survivors {
			survival[name]++
		}
	}

	fmt.Println(paint(o, chalk.Cyan, "=== Aggregate ==="))
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("avg_per_run: wall=%.1f exclusion=%.1f obstacle=%.1f sensor_avoid=%.1f whisker_avoid=%.1f consumed=%.1f\n",
		avg(wall, len(all)), avg(excl, len(all)), avg(obst, len(all)),
		avg(sensor, len(all)), avg(whisker, len(all)), avg(consumed, len(all)))
	fmt.Printf("avg_first_consume_tick=%s\n", avgTickString(consumeTicks))

	names := make([]string, 0, len(survival))
	for n := range survival {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("  %-20s survived %d/%d\n", n, survival[n], len(all))
	}
	if len(all) > 0 {
		fmt.Println()
		fmt.Print(all[len(all)-1].summary)
	}
}

func paint(o options, c chalk.Color, s string) string {
	if !o.color {
		return s
	}
	return c.Color(s)
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
