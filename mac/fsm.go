package mac

import "fmt"

// fsm is a tiny table-driven finite state machine, adapted from the
// teacher's (katalix/go-l2tp) generic fsm.go. There it drives the
// L2TP tunnel control protocol's state machine; here it drives the
// transmit engine's CCA -> TX -> WAIT_ACK -> DONE sequence of
// spec.md §4.1, so the states named in the spec are also the states
// named in the code and in test failure messages.
type fsmCallback func()

type fsmTransition struct {
	from, to string
	events   []string
	cb       fsmCallback
}

type fsm struct {
	current string
	table   []fsmTransition
}

func (f *fsm) handleEvent(e string) error {
	for _, t := range f.table {
		if f.current != t.from {
			continue
		}
		for _, event := range t.events {
			if e != event {
				continue
			}
			f.current = t.to
			if t.cb != nil {
				t.cb()
			}
			return nil
		}
	}
	return fmt.Errorf("mac: no transition defined for event %q in state %q", e, f.current)
}
