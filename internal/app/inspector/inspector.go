package inspector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"powermon/internal/app/errors"
	"powermon/internal/app/observation"
	"powermon/internal/config/logger"
)

//go:generate mockgen -source=inspector.go -destination=inspector_mock.go -package=inspector

// Inspector looks processes up in the OS process table
type Inspector interface {
	FindByName(ctx context.Context, name string) (observation.Match, error)
	ListAll(ctx context.Context) ([]string, error)
}

// entry is one row of the process table
type entry struct {
	pid  int32
	name string
}

type scanFunc func(ctx context.Context) ([]entry, error)
type rssFunc func(ctx context.Context, pid int32) uint64

type inspector struct {
	scan scanFunc
	rss  rssFunc
	log  logger.Logger
}

// NewInspector creates an Inspector backed by gopsutil
func NewInspector(log logger.Logger) Inspector {
	return &inspector{
		scan: scan,
		rss:  residentMemory,
		log:  log.WithComponent("INSPECTOR"),
	}
}

// FindByName returns every running process whose name matches
func (i *inspector) FindByName(ctx context.Context, name string) (observation.Match, error) {
	matcher, err := NewNameMatcher(name)
	if err != nil {
		return observation.Match{}, err
	}

	entries, err := i.scan(ctx)
	if err != nil {
		return observation.Match{}, fmt.Errorf("%w: %w", errors.ErrInspectorUnavailable, err)
	}

	processes := make([]observation.ProcessInfo, 0)

	for _, e := range entries {
		if !matcher.Match(e.name) {
			continue
		}

		processes = append(processes, observation.ProcessInfo{
			PID:  e.pid,
			Name: e.name,
			RSS:  i.rss(ctx, e.pid),
		})
	}

	if len(processes) == 0 {
		return observation.Match{}, nil
	}

	sort.Slice(processes, func(a, b int) bool {
		return processes[a].PID < processes[b].PID
	})

	i.log.Debug().Msgf("Matched %d process(es) for '%s'", len(processes), name)

	return observation.Match{
		Found:     true,
		Detail:    FormatDetail(processes),
		Processes: processes,
	}, nil
}

// ListAll returns the name of every running process in table order, duplicates included
func (i *inspector) ListAll(ctx context.Context) ([]string, error) {
	entries, err := i.scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInspectorUnavailable, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}

	return names, nil
}

// FormatDetail renders matched processes as "name pid memory" rows
func FormatDetail(processes []observation.ProcessInfo) string {
	if len(processes) == 0 {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%-28s %8s %12s\n", "Image Name", "PID", "Mem Usage")
	b.WriteString(strings.Repeat("=", 28) + " " + strings.Repeat("=", 8) + " " + strings.Repeat("=", 12) + "\n")

	for _, p := range processes {
		fmt.Fprintf(&b, "%-28s %8d %12s\n", p.Name, p.PID, FormatMemory(p.RSS))
	}

	return b.String()
}

// FormatMemory renders a byte count in kilobytes with thousands separators
func FormatMemory(bytes uint64) string {
	kb := bytes / 1024
	digits := fmt.Sprintf("%d", kb)

	var b strings.Builder

	for idx, r := range digits {
		if idx > 0 && (len(digits)-idx)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	return b.String() + " K"
}

func scan(ctx context.Context) ([]entry, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]entry, 0, len(processes))

	for _, p := range processes {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}

		results = append(results, entry{pid: p.Pid, name: name})
	}

	return results, nil
}

func residentMemory(ctx context.Context, pid int32) uint64 {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0
	}

	info, err := p.MemoryInfoWithContext(ctx)
	if err != nil || info == nil {
		return 0
	}

	return info.RSS
}
