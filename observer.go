package reactive

// Observer receives instrumentation callbacks from the engine. Callbacks run
// synchronously inside the write or notification that triggered them.
type Observer interface {
	StateWritten(id StateID, key any)
	PointerNotified(id PointerID, kind Kind)
	Resubscribed(id PointerID, from int)
}

// ObserverFuncs adapts optional functions to Observer.
type ObserverFuncs struct {
	OnStateWritten    func(id StateID, key any)
	OnPointerNotified func(id PointerID, kind Kind)
	OnResubscribed    func(id PointerID, from int)
}

func (o ObserverFuncs) StateWritten(id StateID, key any) {
	if o.OnStateWritten != nil {
		o.OnStateWritten(id, key)
	}
}

func (o ObserverFuncs) PointerNotified(id PointerID, kind Kind) {
	if o.OnPointerNotified != nil {
		o.OnPointerNotified(id, kind)
	}
}

func (o ObserverFuncs) Resubscribed(id PointerID, from int) {
	if o.OnResubscribed != nil {
		o.OnResubscribed(id, from)
	}
}

type noopObserver struct{}

func (noopObserver) StateWritten(StateID, any)       {}
func (noopObserver) PointerNotified(PointerID, Kind) {}
func (noopObserver) Resubscribed(PointerID, int)     {}
