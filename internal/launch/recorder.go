package launch

import (
	"context"
	"sync"
)

// Recorder is a Runner that records calls instead of spawning processes.
// Output returns the canned bytes registered for the command name.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	outputs map[string][]byte
	errs    map[string]error
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{
		outputs: make(map[string][]byte),
		errs:    make(map[string]error),
	}
}

// SetOutput registers the stdout returned for name
func (r *Recorder) SetOutput(name string, out []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[name] = out
}

// SetError makes every call to name fail with err
func (r *Recorder) SetError(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[name] = err
}

func (r *Recorder) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: args})
	return r.outputs[name], r.errs[name]
}

func (r *Recorder) Start(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Name: name, Args: args})
	return r.errs[name]
}

// Calls returns the recorded invocations in order
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
