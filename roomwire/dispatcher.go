package roomwire

// Dispatcher routes published session events to registered callbacks. These
// are the subscription channels the presentation layer sees: connectivity,
// deduplicated messages, system messages, roster updates and the derived
// typing display line.
type Dispatcher struct {
	onConnectivity  func(bool)
	onMessage       func(ChatMessage)
	onSystemMessage func(string)
	onRoster        func(RosterUpdate)
	onTyping        func(string)
	onError         func(error)
}

func (d *Dispatcher) SetOnConnectivity(fn func(bool))    { d.onConnectivity = fn }
func (d *Dispatcher) SetOnMessage(fn func(ChatMessage))  { d.onMessage = fn }
func (d *Dispatcher) SetOnSystemMessage(fn func(string)) { d.onSystemMessage = fn }
func (d *Dispatcher) SetOnRoster(fn func(RosterUpdate))  { d.onRoster = fn }
func (d *Dispatcher) SetOnTyping(fn func(string))        { d.onTyping = fn }
func (d *Dispatcher) SetOnError(fn func(error))          { d.onError = fn }

func (d *Dispatcher) fireConnectivity(connected bool) {
	if d.onConnectivity != nil {
		d.onConnectivity(connected)
	}
}

func (d *Dispatcher) fireMessage(msg ChatMessage) {
	if d.onMessage != nil {
		d.onMessage(msg)
	}
}

func (d *Dispatcher) fireSystemMessage(text string) {
	if d.onSystemMessage != nil {
		d.onSystemMessage(text)
	}
}

func (d *Dispatcher) fireRoster(update RosterUpdate) {
	if d.onRoster != nil {
		d.onRoster(update)
	}
}

func (d *Dispatcher) fireTyping(display string) {
	if d.onTyping != nil {
		d.onTyping(display)
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
