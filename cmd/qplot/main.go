// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command qplot renders throughput graphs from qbench JSON result files.
// Each capacity gets one PNG: median ns/msg per variant over the worker
// count, with error bars spanning the averaged bottom and top 5% of the
// observed iterations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// BenchmarkResult mirrors the qbench result schema.
type BenchmarkResult struct {
	Variant       string  `json:"variant"`
	NumProducers  int     `json:"num_producers"`
	NumConsumers  int     `json:"num_consumers"`
	Capacity      int     `json:"capacity"`
	Produced      uint64  `json:"produced"`
	Consumed      uint64  `json:"consumed"`
	Waits         uint64  `json:"waits"`
	TestDuration  string  `json:"test_duration"`
	ActualElapsed string  `json:"actual_elapsed"`
	Throughput    float64 `json:"throughput_msgs_sec"`
	Timestamp     int64   `json:"timestamp"`
	GoVersion     string  `json:"go_version"`
}

// SystemInfo mirrors the qbench system info schema.
type SystemInfo struct {
	NumCPU      int     `json:"num_cpu"`
	CPUModel    string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH      string  `json:"go_arch"`
	TotalMemory uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport mirrors the qbench session schema.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// workerStats holds the spread of ns/msg samples at one worker count.
type workerStats struct {
	x      float64 // category index on the X axis
	orig   float64 // producers + consumers
	min    float64 // average of bottom 5%
	median float64
	max    float64 // average of top 5%
}

// statsPoints implements plotter.XYer and plotter.YErrorer so the same
// series drives the line, the scatter, and the error bars.
type statsPoints []workerStats

func (s statsPoints) Len() int                { return len(s) }
func (s statsPoints) XY(i int) (x, y float64) { return s[i].x, s[i].median }
func (s statsPoints) YError(i int) (low, high float64) {
	return s[i].median - s[i].min, s[i].max - s[i].median
}

// categoryTicks places one labeled tick per worker count.
type categoryTicks struct {
	positions []float64
	labels    []string
}

func (ct categoryTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, pos := range ct.positions {
		if pos >= min && pos <= max {
			ticks = append(ticks, plot.Tick{Value: pos, Label: ct.labels[i]})
		}
	}
	return ticks
}

func main() {
	jsonFile := flag.String("jsonfile", "qbench-results.json", "Path to qbench JSON result file")
	outputPrefix := flag.String("out", "qbench_graph", "Output PNG filename prefix")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}
	var sessions []FullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}

	// capacity -> variant -> workers -> ns/msg samples
	byCapacity := make(map[int]map[string]map[float64][]float64)
	for _, session := range sessions {
		for _, b := range session.Benchmarks {
			dur, err := time.ParseDuration(b.ActualElapsed)
			if err != nil || b.Consumed == 0 {
				continue
			}
			nsPerMsg := float64(dur.Nanoseconds()) / float64(b.Consumed)
			workers := float64(b.NumProducers + b.NumConsumers)

			variants, ok := byCapacity[b.Capacity]
			if !ok {
				variants = make(map[string]map[float64][]float64)
				byCapacity[b.Capacity] = variants
			}
			samples, ok := variants[b.Variant]
			if !ok {
				samples = make(map[float64][]float64)
				variants[b.Variant] = samples
			}
			samples[workers] = append(samples[workers], nsPerMsg)
		}
	}
	if len(byCapacity) == 0 {
		fmt.Fprintln(os.Stderr, "No plottable benchmarks found.")
		os.Exit(1)
	}

	for capacity, variants := range byCapacity {
		if err := renderPlot(capacity, variants, *outputPrefix); err != nil {
			fmt.Fprintf(os.Stderr, "Error plotting capacity %d: %v\n", capacity, err)
		}
	}
}

func renderPlot(capacity int, variants map[string]map[float64][]float64, outputPrefix string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ns/msg (5%%-avg-min / median / 5%%-avg-max), capacity %d", capacity)
	p.X.Label.Text = "Producers + Consumers"
	p.Y.Label.Text = "Time per Msg (ns)"
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	// Union of worker counts mapped to category indices.
	workerSet := make(map[float64]struct{})
	for _, samples := range variants {
		for w := range samples {
			workerSet[w] = struct{}{}
		}
	}
	var workerValues []float64
	for w := range workerSet {
		workerValues = append(workerValues, w)
	}
	sort.Float64s(workerValues)

	category := make(map[float64]float64)
	var positions []float64
	var labels []string
	for i, w := range workerValues {
		category[w] = float64(i)
		positions = append(positions, float64(i))
		labels = append(labels, strconv.FormatFloat(w, 'f', -1, 64))
	}
	p.X.Tick.Marker = categoryTicks{positions: positions, labels: labels}

	var names []string
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	colors := plotutil.SoftColors
	shapes := []draw.GlyphDrawer{
		draw.CircleGlyph{},
		draw.SquareGlyph{},
		draw.TriangleGlyph{},
		draw.CrossGlyph{},
		draw.PlusGlyph{},
	}

	// Offset the series slightly so error bars do not overlap.
	offsetRange := 0.4
	offsetStep := offsetRange / float64(len(names))
	startOffset := -offsetRange/2 + offsetStep/2

	for i, name := range names {
		stats := buildStats(variants[name])
		if len(stats) == 0 {
			continue
		}
		for j := range stats {
			stats[j].x = category[stats[j].orig] + startOffset + float64(i)*offsetStep
		}
		sort.Slice(stats, func(a, b int) bool { return stats[a].x < stats[b].x })
		sp := statsPoints(stats)

		line, err := plotter.NewLine(sp)
		if err != nil {
			return err
		}
		line.Color = colors[i%len(colors)]

		points, err := plotter.NewScatter(sp)
		if err != nil {
			return err
		}
		points.GlyphStyle.Radius = vg.Points(4)
		points.Color = colors[i%len(colors)]
		points.Shape = shapes[i%len(shapes)]

		yErrBars, err := plotter.NewYErrorBars(sp)
		if err != nil {
			return err
		}
		yErrBars.Color = colors[i%len(colors)]

		p.Add(line, points, yErrBars)
		p.Legend.Add(name, line, points)
	}

	filename := fmt.Sprintf("%s_cap%d.png", outputPrefix, capacity)
	if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
		return err
	}
	fmt.Printf("Graph for capacity %d saved to %s\n", capacity, filename)
	return nil
}

// buildStats computes the averaged bottom 5%, median, and averaged top
// 5% of the samples at each worker count.
func buildStats(samples map[float64][]float64) []workerStats {
	var stats []workerStats
	for workers, values := range samples {
		if len(values) == 0 {
			continue
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		n := len(sorted)
		edge := int(math.Ceil(float64(n) * 0.05))
		if edge < 1 {
			edge = 1
		}

		var low, high float64
		for _, v := range sorted[:edge] {
			low += v
		}
		low /= float64(edge)
		for _, v := range sorted[n-edge:] {
			high += v
		}
		high /= float64(edge)

		var median float64
		if n%2 == 1 {
			median = sorted[n/2]
		} else {
			median = (sorted[n/2-1] + sorted[n/2]) / 2
		}

		stats = append(stats, workerStats{
			orig:   workers,
			min:    low,
			median: median,
			max:    high,
		})
	}
	return stats
}
