package roomwire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(tb testing.TB, cfg Config, d Dialer) *connManager {
	tb.Helper()
	m := newConnManager(cfg, d, noopLogger{})
	tb.Cleanup(func() { _ = m.Close() })
	return m
}

func TestConnectIdempotent(t *testing.T) {
	req := require.New(t)
	d := newFakeDialer(0)
	m := newTestManager(t, testConfig(), d)

	req.NoError(m.Connect())
	waitTransport(t, d)
	req.NoError(m.Connect()) // no-op while running

	time.Sleep(50 * time.Millisecond)
	req.Equal(1, d.dialCount())
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = ""
	m := newTestManager(t, cfg, newFakeDialer(0))
	err := m.Connect()
	require.ErrorIs(t, err, NewError(ErrorInvalidConfig, ""))
}

func TestConnectivityBroadcastPerSubscriber(t *testing.T) {
	req := require.New(t)
	d := newFakeDialer(0)
	m := newTestManager(t, testConfig(), d)

	ch1, stop1 := m.Connectivity()
	ch2, stop2 := m.Connectivity()
	defer stop1()
	defer stop2()

	req.NoError(m.Connect())
	tr := waitTransport(t, d)

	recv := func(ch <-chan bool) bool {
		select {
		case v := <-ch:
			return v
		case <-time.After(time.Second):
			t.Fatal("no connectivity event")
			return false
		}
	}

	req.True(recv(ch1))
	req.True(recv(ch2))
	req.True(m.IsConnected())

	// Drop the transport: both subscribers see the same false transition.
	_ = tr.Close()
	req.False(recv(ch1))
	req.False(recv(ch2))
}

func TestDialFailureSurfacesAsFalseNotError(t *testing.T) {
	req := require.New(t)
	d := newFakeDialer(2)
	m := newTestManager(t, testConfig(), d)

	ch, stop := m.Connectivity()
	defer stop()

	req.NoError(m.Connect(), "dial failures must not surface from Connect")

	// Two failed attempts, each one false event, then the third succeeds.
	for i := 0; i < 2; i++ {
		select {
		case v := <-ch:
			req.False(v)
		case <-time.After(time.Second):
			t.Fatal("missing connect-error event")
		}
	}
	waitTransport(t, d)
	select {
	case v := <-ch:
		req.True(v)
	case <-time.After(time.Second):
		t.Fatal("missing connect event")
	}
}

func TestReconnectExhaustionIsTerminalUntilConnect(t *testing.T) {
	req := require.New(t)
	cfg := testConfig()
	cfg.MaxReconnectTries = 3
	d := newFakeDialer(100)
	m := newTestManager(t, cfg, d)

	req.NoError(m.Connect())
	req.Eventually(func() bool { return d.dialCount() == 3 }, 2*time.Second, 5*time.Millisecond)

	// Terminal: no further attempts on their own.
	time.Sleep(100 * time.Millisecond)
	req.Equal(3, d.dialCount())
	req.False(m.IsConnected())

	// An explicit Connect restarts the schedule.
	req.NoError(m.Connect())
	req.Eventually(func() bool { return d.dialCount() > 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSendRequiresLiveTransport(t *testing.T) {
	m := newTestManager(t, testConfig(), newFakeDialer(0))
	err := m.Send(context.Background(), Packet{Event: eventTyping})
	require.ErrorIs(t, err, NewError(ErrorNotConnected, ""))
}

func TestStateTransitionsOnReconnect(t *testing.T) {
	req := require.New(t)
	d := newFakeDialer(0)
	m := newTestManager(t, testConfig(), d)

	statesCh := make(chan ConnectionState, 16)
	m.setOnStateChanged(func(ev StateEvent) { statesCh <- ev.NewState })

	req.NoError(m.Connect())
	tr := waitTransport(t, d)

	expect := func(want ConnectionState) {
		select {
		case got := <-statesCh:
			req.Equal(want, got)
		case <-time.After(time.Second):
			t.Fatalf("missing state %s", want)
		}
	}
	expect(StateConnecting)
	expect(StateConnected)

	_ = tr.Close()
	expect(StateReconnecting)
	waitTransport(t, d)
	expect(StateConnected)
}
