package logger

import (
	"reflect"
	"testing"
)

type recordedCall struct {
	level   string
	message string
	keyvals []any
}

type recordingLogger struct {
	calls []recordedCall
}

func (r *recordingLogger) record(level, message string, keyvals []any) {
	r.calls = append(r.calls, recordedCall{level: level, message: message, keyvals: keyvals})
}

func (r *recordingLogger) Log(message string, keyvals ...any)   { r.record("log", message, keyvals) }
func (r *recordingLogger) Debug(message string, keyvals ...any) { r.record("debug", message, keyvals) }
func (r *recordingLogger) Info(message string, keyvals ...any)  { r.record("info", message, keyvals) }
func (r *recordingLogger) Warn(message string, keyvals ...any)  { r.record("warn", message, keyvals) }
func (r *recordingLogger) Error(message string, keyvals ...any) { r.record("error", message, keyvals) }
func (r *recordingLogger) Fatal(message string, keyvals ...any) { r.record("fatal", message, keyvals) }

func TestDispatchToAllInstances(t *testing.T) {
	a := &recordingLogger{}
	b := &recordingLogger{}
	Init(a, b)
	t.Cleanup(func() { Init() })

	Info("[Loader] batch committed", "table", "alias", "rows", 10)
	Log("plain", "k", "v")

	for _, r := range []*recordingLogger{a, b} {
		if len(r.calls) != 2 {
			t.Fatalf("expected 2 calls, got %d", len(r.calls))
		}
		if r.calls[0].level != "info" || r.calls[0].message != "[Loader] batch committed" {
			t.Fatalf("unexpected first call: %+v", r.calls[0])
		}
		if !reflect.DeepEqual(r.calls[0].keyvals, []any{"table", "alias", "rows", 10}) {
			t.Fatalf("unexpected keyvals: %v", r.calls[0].keyvals)
		}
		if !reflect.DeepEqual(r.calls[1].keyvals, []any{"k", "v"}) {
			t.Fatalf("expected Log to forward keyvals, got %v", r.calls[1].keyvals)
		}
	}
}

func TestNoInstancesIsSilent(t *testing.T) {
	Init()
	Debug("nothing happens")
	Warn("nothing happens")
	Error("nothing happens")
}
