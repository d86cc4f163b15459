package distribution

// Metrics receives distribution events. The Prometheus implementation lives
// in internal/metrics; the zero-cost default discards everything.
type Metrics interface {
	ObserveReload(err error, records int)
	ObserveBroadcast(subscribers int)
	ObserveDelivery(transport string, err error)
	SubscriberAdded(transport string)
	SubscriberRemoved(transport string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveReload(error, int) {}
func (nopMetrics) ObserveBroadcast(int) {}
func (nopMetrics) ObserveDelivery(string, error) {}
func (nopMetrics) SubscriberAdded(string) {}
func (nopMetrics) SubscriberRemoved(string) {}
