package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a driver event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Uptime    uint32 // Uptime in ms when the event was recorded
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtInit    = 1 // Init programmed the reload value (Value1 = reload)
	EvtEnable  = 2 // Timer enabled
	EvtDisable = 3 // Timer disabled
	EvtAttach  = 4 // Callback attached
	EvtDetach  = 5 // Callback detached
	EvtDelay   = 6 // Delay entered (Value1 = ms, Value2 = start micros; Uptime is start micros / 1000)
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Do not call from interrupt context; use EventRing.Record there.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// EventRing is a fixed-size ring of the most recent TimingEvents.
// Record is safe from both interrupt and main context.
type EventRing struct {
	events [EventRingSize]TimingEvent
	head   uint8 // Next write position
}

// Record stores an event, overwriting the oldest once the ring is full
func (r *EventRing) Record(eventType uint8, uptime, value1, value2 uint32) {
	state := disableInterrupts()
	r.events[r.head] = TimingEvent{
		EventType: eventType,
		Uptime:    uptime,
		Value1:    value1,
		Value2:    value2,
	}
	r.head = (r.head + 1) % EventRingSize
	restoreInterrupts(state)
}

// Snapshot returns the recorded events from oldest to newest
func (r *EventRing) Snapshot() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]TimingEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.events[(r.head+i)%EventRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring
func (r *EventRing) Clear() {
	state := disableInterrupts()
	r.events = [EventRingSize]TimingEvent{}
	r.head = 0
	restoreInterrupts(state)
}

// Dump writes the ring to the debug writer, oldest first.
// Output is produced even when debug is disabled.
func (r *EventRing) Dump() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Event Ring Dump ===")
	for _, evt := range r.Snapshot() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" uptime=" + utoa(evt.Uptime) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtInit:
		return "INIT"
	case EvtEnable:
		return "ENABLE"
	case EvtDisable:
		return "DISABLE"
	case EvtAttach:
		return "ATTACH"
	case EvtDetach:
		return "DETACH"
	case EvtDelay:
		return "DELAY"
	default:
		return "UNKNOWN"
	}
}
