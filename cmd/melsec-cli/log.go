package main

import (
	"fmt"
	"log/slog"
)

type debugAdapter struct {
	log *slog.Logger
}

func newDebugAdapter(log *slog.Logger) *debugAdapter {
	return &debugAdapter{log: log}
}

func (d *debugAdapter) Printf(msg string, args ...any) {
	if d == nil || d.log == nil {
		return
	}
	d.log.Debug(fmt.Sprintf(msg, args...))
}
