package monitor

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keycalc/core"
	"keycalc/protocol"
)

// firmwareEnd runs a core.Console on one end of a pipe, the way the
// target's USB reader feeds it.
func firmwareEnd(t *testing.T, conn net.Conn) *core.Console {
	t.Helper()
	c := core.NewConsole(conn.Write)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				c.Feed(buf[:n])
				c.Process()
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

func attached(t *testing.T) (*Monitor, *core.Console) {
	t.Helper()
	hostConn, fwConn := net.Pipe()
	console := firmwareEnd(t, fwConn)

	m := New()
	require.NoError(t, m.Attach(hostConn))
	t.Cleanup(func() {
		m.Close()
		fwConn.Close()
	})
	return m, console
}

func waitEvent(t *testing.T, m *Monitor, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-m.Events():
			if e.Kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("no event of kind %d", kind)
			return Event{}
		}
	}
}

func TestInjectKey(t *testing.T) {
	m, console := attached(t)
	ctx := context.Background()

	require.NoError(t, m.InjectKey(ctx, '5'))
	require.NoError(t, m.InjectKey(ctx, '#'))

	assert.Equal(t, byte('5'), console.NextKey())
	assert.Equal(t, byte('#'), console.NextKey())
	assert.Equal(t, core.NoKey, console.NextKey())
}

func TestInjectInvalidKey(t *testing.T) {
	m, _ := attached(t)
	err := m.InjectKey(context.Background(), 'x')
	assert.ErrorIs(t, err, ErrInvalidKey)

	err = m.InjectKeys(context.Background(), "1x", 0)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNotConnected(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.InjectKey(context.Background(), '1'), ErrNotConnected)
	assert.ErrorIs(t, m.RequestState(context.Background()), ErrNotConnected)
	assert.NoError(t, m.Close())
}

func TestRequestState(t *testing.T) {
	m, console := attached(t)
	console.CalcState(core.StateEnteringB, 12, 0)
	waitEvent(t, m, EventState)

	require.NoError(t, m.RequestState(context.Background()))

	e := waitEvent(t, m, EventState)
	assert.Equal(t, core.StateEnteringB, e.State)
	assert.Equal(t, uint32(12), e.A)

	v := waitEvent(t, m, EventVersion)
	assert.Equal(t, protocol.Version, v.Text)
}

func TestScreenMirror(t *testing.T) {
	m, console := attached(t)

	console.LCDCommand(core.LCDClearDisplay)
	console.LCDCommand(core.CursorAddress(1, 0))
	console.LCDText("36")
	console.CalcResult(12, 3, 36)

	r := waitEvent(t, m, EventResult)
	assert.Equal(t, uint32(36), r.Result)

	// Responses are handled in order, so the screen is complete by now.
	screen := m.Screen()
	assert.Equal(t, "", strings.TrimSpace(screen[0]))
	assert.Equal(t, "36", strings.TrimSpace(screen[1]))
}

func TestKeyAndDebugEvents(t *testing.T) {
	m, console := attached(t)

	console.KeyEvent('7', protocol.KeySourceMatrix)
	console.Debug("[KEY] 7")

	k := waitEvent(t, m, EventKey)
	assert.Equal(t, byte('7'), k.Key)
	assert.Equal(t, uint8(protocol.KeySourceMatrix), k.Source)

	d := waitEvent(t, m, EventDebug)
	assert.Equal(t, "[KEY] 7", d.Text)
}

func TestCloseWithUndrainedEvents(t *testing.T) {
	m, console := attached(t)

	stop := make(chan struct{})
	flooded := make(chan struct{})
	go func() {
		defer close(flooded)
		for {
			select {
			case <-stop:
				return
			default:
				console.KeyEvent('5', protocol.KeySourceMatrix)
			}
		}
	}()
	defer func() {
		close(stop)
		<-flooded
	}()

	require.Eventually(t, func() bool { return m.Dropped() > 0 },
		2*time.Second, 5*time.Millisecond, "events never overflowed")

	closed := make(chan error, 1)
	go func() { closed <- m.Close() }()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked while the event channel was full")
	}
	assert.False(t, m.IsConnected())
}
