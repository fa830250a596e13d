package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// EntryLeveller is a zapcore.Core that filters log entries based on the logger name, similar to Log4j or python's
// logging module. A level for `monorepo` applies to `monorepo.manifest` unless that has its own level.
type EntryLeveller struct {
	zapcore.Core

	levels *sync.Map // map[string]zapcore.Level
}

func NewEntryLeveller(core zapcore.Core, levels map[string]zapcore.Level) *EntryLeveller {
	el := &EntryLeveller{Core: core, levels: &sync.Map{}}
	for k, v := range levels {
		el.levels.Store(k, v)
	}
	return el
}

func (el *EntryLeveller) With(f []zapcore.Field) zapcore.Core {
	return &EntryLeveller{
		Core:   el.Core.With(f),
		levels: el.levels,
	}
}

// levelFor walks from the full logger name up through its dotted parents to the root ("").
func (el *EntryLeveller) levelFor(name string) (zapcore.Level, bool) {
	for {
		if lvl, ok := el.levels.Load(name); ok {
			return lvl.(zapcore.Level), true
		}
		if name == "" {
			return 0, false
		}
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			name = ""
		} else {
			name = name[:idx]
		}
	}
}

func (el *EntryLeveller) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	level, ok := el.levelFor(e.LoggerName)
	if !ok {
		return el.Core.Check(e, ce)
	}
	if e.LoggerName != "" {
		// cache the resolved level so children don't need to walk again
		el.levels.Store(e.LoggerName, level)
	}
	if e.Level < level {
		return ce
	}
	return ce.AddCore(e, el)
}
