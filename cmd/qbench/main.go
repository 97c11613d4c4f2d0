// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command qbench benchmarks the ringq backends under configurable
// producer/consumer loads and appends the results as JSON sessions for
// qplot to graph.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"code.hybscloud.com/ringq"
	"code.hybscloud.com/ringq/internal/qbench"
)

// BenchmarkResult holds results for one test run.
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

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU      int     `json:"num_cpu"`
	CPUModel    string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH      string  `json:"go_arch"`
	TotalMemory uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete benchmark session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// variant is one benchmarkable queue configuration.
type variant struct {
	name        string
	description string
	blocking    bool
	// spscOnly restricts the variant to 1 producer / 1 consumer runs.
	spscOnly bool
	newQueue func(capacity int) ringq.Queue[uint64]
}

func getVariants() []variant {
	return []variant{
		{
			name:        "mpmc-poll",
			description: "MPMC ring, polling API with per-worker backoff",
			newQueue:    func(c int) ringq.Queue[uint64] { return ringq.NewMPMC[uint64](c) },
		},
		{
			name:        "mpmc-block",
			description: "MPMC ring, blocking API",
			blocking:    true,
			newQueue:    func(c int) ringq.Queue[uint64] { return ringq.NewMPMC[uint64](c) },
		},
		{
			name:        "spsc-poll",
			description: "SPSC ring, polling API (1 producer / 1 consumer only)",
			spscOnly:    true,
			newQueue:    func(c int) ringq.Queue[uint64] { return ringq.NewSPSC[uint64](c) },
		},
		{
			name:        "list-poll",
			description: "Michael & Scott nodes, polling API",
			newQueue:    func(c int) ringq.Queue[uint64] { return ringq.NewList[uint64](c) },
		},
	}
}

func main() {
	duration := flag.Duration("duration", 5*time.Second, "Production window per run")
	iterations := flag.Int("iter", 5, "Iterations per variant and concurrency setting")
	capacity := flag.Int("capacity", 1024, "Queue capacity")
	producers := flag.Int("producers", 0, "Fixed producer count (0 = sweep 1,2,4)")
	consumers := flag.Int("consumers", 0, "Fixed consumer count (0 = sweep 1,2,4)")
	only := flag.String("variant", "", "Run only the named variant")
	jsonFile := flag.String("json", "", "Append session to this JSON file")
	progress := flag.Bool("progress", false, "Display a progress bar")
	list := flag.Bool("list", false, "List variants and exit")
	flag.Parse()

	variants := getVariants()
	if *list {
		for _, v := range variants {
			fmt.Printf("%-12s %s\n", v.name, v.description)
		}
		return
	}
	if *only != "" {
		var filtered []variant
		for _, v := range variants {
			if v.name == *only {
				filtered = append(filtered, v)
			}
		}
		if len(filtered) == 0 {
			fmt.Fprintf(os.Stderr, "unknown variant %q; -list shows the options\n", *only)
			os.Exit(2)
		}
		variants = filtered
	}

	var configs []qbench.Config
	if *producers > 0 || *consumers > 0 {
		p, c := *producers, *consumers
		if p < 1 {
			p = 1
		}
		if c < 1 {
			c = 1
		}
		configs = []qbench.Config{{Producers: p, Consumers: c, Duration: *duration}}
	} else {
		for _, n := range []int{1, 2, 4} {
			configs = append(configs, qbench.Config{Producers: n, Consumers: n, Duration: *duration})
		}
	}

	totalRuns := 0
	for _, cfg := range configs {
		for _, v := range variants {
			if v.spscOnly && (cfg.Producers != 1 || cfg.Consumers != 1) {
				continue
			}
			totalRuns += *iterations
		}
	}

	var bar *progressbar.ProgressBar
	if *progress {
		bar = progressbar.Default(int64(totalRuns), "benchmarking")
	}

	sysInfo := gatherSystemInfo()
	fmt.Printf("qbench: %d CPU(s), %s, capacity=%d, duration=%v\n",
		sysInfo.NumCPU, sysInfo.GOARCH, *capacity, *duration)

	var results []BenchmarkResult
	failed := false
	for _, cfg := range configs {
		fmt.Printf("\n[producers=%d consumers=%d]\n", cfg.Producers, cfg.Consumers)
		for _, v := range variants {
			if v.spscOnly && (cfg.Producers != 1 || cfg.Consumers != 1) {
				continue
			}
			for iter := 1; iter <= *iterations; iter++ {
				runtime.GC()
				runCfg := cfg
				runCfg.Blocking = v.blocking
				res, err := qbench.Run(v.newQueue(*capacity), runCfg)
				if bar != nil {
					bar.Add(1)
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "  %s iteration %d: %v\n", v.name, iter, err)
					failed = true
					continue
				}
				if res.ProducedSum != res.ConsumedSum {
					fmt.Fprintf(os.Stderr, "  %s iteration %d: payload sum mismatch: produced %d consumed %d\n",
						v.name, iter, res.ProducedSum, res.ConsumedSum)
					failed = true
					continue
				}
				fmt.Printf("  %-12s produced=%d consumed=%d throughput=%.0f msg/s waits=%d took=%v\n",
					v.name, res.Produced, res.Consumed, res.Throughput(), res.Waits, res.Elapsed)
				results = append(results, BenchmarkResult{
					Variant:       v.name,
					NumProducers:  cfg.Producers,
					NumConsumers:  cfg.Consumers,
					Capacity:      *capacity,
					Produced:      res.Produced,
					Consumed:      res.Consumed,
					Waits:         res.Waits,
					TestDuration:  duration.String(),
					ActualElapsed: res.Elapsed.String(),
					Throughput:    res.Throughput(),
					Timestamp:     time.Now().Unix(),
					GoVersion:     runtime.Version(),
				})
			}
		}
	}
	if bar != nil {
		fmt.Fprintln(os.Stderr)
	}

	if *jsonFile != "" {
		report := FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  sysInfo,
			Benchmarks:  results,
		}
		if err := appendSession(*jsonFile, report); err != nil {
			fmt.Fprintf(os.Stderr, "writing %s: %v\n", *jsonFile, err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", *jsonFile)
	}
	if failed {
		os.Exit(1)
	}
}

// appendSession appends report to the session list in filename,
// creating the file if needed.
func appendSession(filename string, report FullReport) error {
	var sessions []FullReport
	if data, err := os.ReadFile(filename); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &sessions); err != nil {
			return fmt.Errorf("existing sessions: %w", err)
		}
	}
	sessions = append(sessions, report)
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	info := SystemInfo{
		NumCPU: runtime.NumCPU(),
		GOARCH: runtime.GOARCH,
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = strings.TrimSpace(infos[0].ModelName)
		info.CPUSpeedMHz = infos[0].Mhz
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	}
	return info
}
