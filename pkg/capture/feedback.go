package capture

import "log/slog"

// Feedback is a caller-supplied pair of fire-and-forget hooks invoked at the
// session boundary: OnStart once the device is delivering frames, OnStop
// after a natural (silence or timeout) stop. Neither hook runs on
// cancellation or when the device fails to start.
//
// Hooks are side effects only — audio tones, haptics, a terminal bell. They
// have no error channel; a panic inside a hook is logged and swallowed so it
// can never alter the session outcome. Nil hooks are skipped.
type Feedback struct {
	OnStart func()
	OnStop  func()
}

func (f Feedback) start() { runHook("on_start", f.OnStart) }
func (f Feedback) stop()  { runHook("on_stop", f.OnStop) }

func runHook(name string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("feedback hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}
