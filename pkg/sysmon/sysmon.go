// Copyright (C) 2026 Prairie Dog Brewing
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package sysmon reports process and host resource usage on the web
// status surface. Fermentations run for weeks on small boards; a
// leaking daemon shows up here long before it falls over.
package sysmon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type Snapshot struct {
	GoVersion  string  `json:"go_version"`
	Goroutines int     `json:"goroutines"`
	SystemCPU  float64 `json:"system_cpu_percent"`
	ProcessCPU float64 `json:"process_cpu_percent"`
	SystemMem  uint64  `json:"system_mem_total"`
	UsedMem    uint64  `json:"system_mem_used"`
	FreeMem    uint64  `json:"system_mem_free"`
	ProcessRSS uint64  `json:"process_rss"`
	DiskTotal  uint64  `json:"disk_total"`
	DiskUsed   uint64  `json:"disk_used"`
	DiskFree   uint64  `json:"disk_free"`
}

// Take collects a point-in-time resource snapshot. Collection errors
// leave the affected fields zero rather than failing the page.
func Take() Snapshot {
	s := Snapshot{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		s.SystemCPU = percents[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		s.SystemMem = vmem.Total
		s.UsedMem = vmem.Used
		s.FreeMem = vmem.Available
	}
	if total, free, used, err := DiskUsage("/"); err == nil {
		s.DiskTotal = total
		s.DiskFree = free
		s.DiskUsed = used
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			s.ProcessCPU = cpuPercent
		}
	}
	return s
}

// Handler serves the snapshot as JSON, or a small HTML table for
// browsers.
type Handler struct{}

func (Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := Take()

	if r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s)
		return
	}

	const gb = 1024 * 1024 * 1024
	const mb = 1024 * 1024
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
	<title>fermenatord status</title>
	<style>
		body { font-family: sans-serif; margin: 2em; background: #f9f9f9; }
		h1 { color: #333; }
		table { border-collapse: collapse; margin-top: 1em; }
		th, td { border: 1px solid #ccc; padding: 0.6em 1em; text-align: left; }
		th { background: #eee; }
	</style>
</head>
<body>
	<h1>Process Status</h1>
	<p>%s, %d goroutines</p>
	<h2>CPU</h2>
	<table>
		<tr><th>System %%</th><th>Process %%</th></tr>
		<tr><td>%.2f%%</td><td>%.2f%%</td></tr>
	</table>
	<h2>Memory</h2>
	<table>
		<tr><th>System Total</th><th>System Used</th><th>System Free</th><th>Process RSS</th></tr>
		<tr><td>%.2f GB</td><td>%.2f GB</td><td>%.2f GB</td><td>%.2f MB</td></tr>
	</table>
	<h2>Disk (/)</h2>
	<table>
		<tr><th>Total</th><th>Used</th><th>Free</th></tr>
		<tr><td>%.2f GB</td><td>%.2f GB</td><td>%.2f GB</td></tr>
	</table>
</body>
</html>
`,
		s.GoVersion, s.Goroutines,
		s.SystemCPU, s.ProcessCPU,
		float64(s.SystemMem)/gb,
		float64(s.UsedMem)/gb,
		float64(s.FreeMem)/gb,
		float64(s.ProcessRSS)/mb,
		float64(s.DiskTotal)/gb,
		float64(s.DiskUsed)/gb,
		float64(s.DiskFree)/gb,
	)
}
