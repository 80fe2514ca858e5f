package simulator

// Observer receives settled rounds and finished sessions. Observers passed
// to RunParallelBatch are called from several goroutines at once and must
// be safe for concurrent use.
type Observer interface {
	OnSpin(session int, spin SpinResult)
	OnSessionEnd(session int, result SessionResult)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnSpin(int, SpinResult) {}
func (NopObserver) OnSessionEnd(int, SessionResult) {}

// Observers fans events out to each observer in order.
type Observers []Observer

func (o Observers) OnSpin(session int, spin SpinResult) {
	for _, obs := range o {
		obs.OnSpin(session, spin)
	}
}

func (o Observers) OnSessionEnd(session int, result SessionResult) {
	for _, obs := range o {
		obs.OnSessionEnd(session, result)
	}
}
