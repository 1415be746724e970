package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all signal events that were published.
	Events []SignalEvent

	// Payloads contains the JSON payloads of Events.
	Payloads [][]byte

	// FaultEvents contains all fault events that were published.
	FaultEvents []FaultEvent

	// FaultPayloads contains the JSON payloads of FaultEvents.
	FaultPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish and PublishFault.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Block, if set, makes every publish wait until it is closed.
	Block <-chan struct{}

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the signal event.
func (f *FakePublisher) Publish(event SignalEvent) error {
	f.wait()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishFault records the fault event.
func (f *FakePublisher) PublishFault(event FaultEvent) error {
	f.wait()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatFaultPayload(event)
	if err != nil {
		return err
	}
	f.FaultEvents = append(f.FaultEvents, event)
	f.FaultPayloads = append(f.FaultPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.wait()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

func (f *FakePublisher) wait() {
	if f.Block != nil {
		<-f.Block
	}
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events and injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
