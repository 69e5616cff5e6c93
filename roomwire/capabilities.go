package roomwire

// Sounder plays the UI sound for an inbound remote message. Injected so the
// core never owns an audio backend; the default does nothing.
type Sounder interface {
	MessageReceived()
}

// Notifier raises a presence notification when the roster delta says
// someone joined or left. Injected for the same reason as Sounder.
type Notifier interface {
	Notify(title, body string)
}

type noopSounder struct{}

func (noopSounder) MessageReceived() {}

type noopNotifier struct{}

func (noopNotifier) Notify(string, string) {}
