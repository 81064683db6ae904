package emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mipsim/insts"
)

// StepEvent describes a committed step.
type StepEvent struct {
	PC   uint32
	Inst *insts.Instruction

	// NextPC is the PC after the step.
	NextPC uint32

	// WroteReg is set when a general-purpose register other than R0 changed.
	WroteReg bool
	Reg      uint8
	Value    uint32

	// Stored is set when the step wrote a memory word.
	Stored bool
	Store  PendingStore

	Count uint64
}

// FaultEvent describes a step that was rejected.
type FaultEvent struct {
	Fault *Fault
	Count uint64
}

// Tracer observes the execution of an Emulator.
type Tracer interface {
	Trace(ev StepEvent)
	Fault(ev FaultEvent)
}

// LogTracer reports steps and faults through logrus.
type LogTracer struct {
	logger *logrus.Logger
}

// NewLogTracer creates a LogTracer writing to sink. Level 0 only lets
// warnings through, 1 adds faults and 2 or more adds every step.
func NewLogTracer(level uint, sink io.Writer) *LogTracer {
	logger := logrus.New()
	logger.SetOutput(sink)
	logger.SetLevel(logLevel(level))
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})

	return &LogTracer{logger: logger}
}

func logLevel(level uint) logrus.Level {
	switch {
	case level == 0:
		return logrus.WarnLevel
	case level == 1:
		return logrus.InfoLevel
	case level == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// Logger exposes the underlying logger.
func (t *LogTracer) Logger() *logrus.Logger {
	return t.logger
}

// Trace logs a committed step at debug level.
func (t *LogTracer) Trace(ev StepEvent) {
	if !t.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	fields := logrus.Fields{
		"pc":   fmt.Sprintf("0x%08x", ev.PC),
		"inst": ev.Inst.String(),
		"npc":  fmt.Sprintf("0x%08x", ev.NextPC),
	}
	if ev.WroteReg {
		fields["reg"] = ev.Reg
		fields["value"] = fmt.Sprintf("0x%08x", ev.Value)
	}
	if ev.Stored {
		fields["addr"] = fmt.Sprintf("0x%08x", ev.Store.Addr)
		fields["word"] = fmt.Sprintf("0x%08x", ev.Store.Value)
	}

	t.logger.WithFields(fields).Debug("step")
	t.logger.WithField("count", ev.Count).Trace("retired")
}

// Fault logs a rejected step at info level.
func (t *LogTracer) Fault(ev FaultEvent) {
	fields := logrus.Fields{
		"pc":    fmt.Sprintf("0x%08x", ev.Fault.PC),
		"count": ev.Count,
	}
	if ev.Fault.Inst != nil {
		fields["inst"] = ev.Fault.Inst.String()
	}

	t.logger.WithFields(fields).WithError(ev.Fault.Err).Info("fault")
}
