package metrics

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSampler периодически снимает загрузку CPU и RSS процесса
type ProcessSampler struct {
	proc     *process.Process
	interval time.Duration
	cpu      prometheus.Gauge
	rss      prometheus.Gauge
}

// NewProcessSampler создаёт сэмплер для текущего процесса
func NewProcessSampler(reg prometheus.Registerer, interval time.Duration) (*ProcessSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ps := &ProcessSampler{
		proc:     proc,
		interval: interval,
		cpu: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "cpu_percent",
			Help:      "Использование CPU процессом в процентах.",
		}),
		rss: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "process",
			Name:      "resident_memory_bytes",
			Help:      "Резидентная память процесса.",
		}),
	}
	reg.MustRegister(ps.cpu, ps.rss)
	return ps, nil
}

// Sample снимает одно измерение
func (ps *ProcessSampler) Sample() error {
	cpuPercent, err := ps.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, берём системную
		percents, serr := cpu.Percent(100*time.Millisecond, false)
		if serr != nil || len(percents) == 0 {
			return err
		}
		cpuPercent = percents[0]
	}
	ps.cpu.Set(cpuPercent)

	mem, err := ps.proc.MemoryInfo()
	if err != nil {
		return err
	}
	ps.rss.Set(float64(mem.RSS))
	return nil
}

// Run снимает измерения до отмены ctx
func (ps *ProcessSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(ps.interval)
	defer ticker.Stop()

	for {
		if err := ps.Sample(); err != nil {
			metricsLog().Debug("process sample failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
