package engine

import (
	"fmt"

	"github.com/yurykabanov/dupjob/pkg/domain"
)

const (
	DefaultNice    = 19
	DefaultIOClass = 2
	DefaultIOLevel = 7
)

const (
	minNice  = -20
	maxNice  = 19
	minLevel = 0
	maxLevel = 7

	ioClassRealtime  = 1
	ioClassIdle      = 3
	ioprioClassShift = 13
	ioprioWhoProcess = 1
)

// Priority is the CPU and I/O scheduling applied to the engine child.
type Priority struct {
	Nice    int
	IOClass int
	IOLevel int
}

func DefaultPriority() Priority {
	return Priority{Nice: DefaultNice, IOClass: DefaultIOClass, IOLevel: DefaultIOLevel}
}

func (p Priority) Validate() error {
	if p.Nice < minNice || p.Nice > maxNice {
		return &domain.RequestError{Reason: fmt.Sprintf("nice must be within [%d,%d], got %d", minNice, maxNice, p.Nice)}
	}
	if p.IOClass < ioClassRealtime || p.IOClass > ioClassIdle {
		return &domain.RequestError{Reason: fmt.Sprintf("ionice class must be one of {1,2,3}, got %d", p.IOClass)}
	}
	if p.IOLevel < minLevel || p.IOLevel > maxLevel {
		return &domain.RequestError{Reason: fmt.Sprintf("ionice level must be within [%d,%d], got %d", minLevel, maxLevel, p.IOLevel)}
	}
	return nil
}

func (p Priority) ioprio() int {
	return p.IOClass<<ioprioClassShift | p.IOLevel
}
