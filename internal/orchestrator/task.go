package orchestrator

// TaskHandle observes a detached unit of work. Completion is observable
// for logging and tests only; nothing in the response path waits on it
// and nothing ever cancels it through the handle.
type TaskHandle struct {
	done chan struct{}
	err  error
}

func newTaskHandle() *TaskHandle {
	return &TaskHandle{done: make(chan struct{})}
}

// Done is closed when the task finishes, successfully or not.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task's failure, if any. Valid only after Done is
// closed.
func (h *TaskHandle) Err() error {
	return h.err
}

func (h *TaskHandle) finish(err error) {
	h.err = err
	close(h.done)
}
