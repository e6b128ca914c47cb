package client

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

// slot is the connection side of one session.
type slot struct {
	conn   Conn
	gen    uint64
	cancel context.CancelFunc

	reconnect *Timer
	respawn   *Timer
	keepalive *Timer

	openedAt time.Time
	bytesIn  uint64
	bytesOut uint64

	mouseSent bool
	mouseX    int32
	mouseY    int32
}

// Client is the connection manager for the primary session and the
// optional multibox session. All session state lives on one event loop
// goroutine (Run); reader goroutines and timers only post work to it.
type Client struct {
	cfg        *Config
	logger     *slog.Logger
	coord      *session.Coordinator
	slots      map[*session.State]*slot
	dispatcher *Dispatcher
	tracer     trace.Tracer
	metrics    *Metrics
	limiter    *rate.Limiter

	dispatchCh chan func()
	done       chan struct{}
	closeOnce  sync.Once
	running    atomic.Bool

	mouseX, mouseY int32
	mouseSet       bool
}

// New creates a client whose primary session targets url with identity id.
// Nothing connects until Connect or Play is called and Run is running.
func New(cfg *Config, url string, id protocol.Identity) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	cfg.applyDefaults()

	c := &Client{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "client"),
		slots:      make(map[*session.State]*slot),
		tracer:     cfg.Tracer,
		metrics:    cfg.Metrics,
		limiter:    rate.NewLimiter(cfg.ActionRate, cfg.ActionBurst),
		dispatchCh: make(chan func(), cfg.MaxDispatchQueue),
		done:       make(chan struct{}),
	}
	if c.tracer == nil {
		c.tracer = defaultTracer()
	}
	c.coord = session.NewCoordinator(cfg.Session, url, id)
	c.coord.SecondaryIdentity = cfg.SecondaryIdentity
	c.dispatcher = NewDispatcher(cfg, c)
	return c
}

// Run processes connection events, timers, render ticks and mouse polls
// until ctx is done or Close is called. It must be called once.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("client: Run called twice")
	}
	render := time.NewTicker(c.cfg.RenderInterval)
	defer render.Stop()
	mouse := time.NewTicker(c.cfg.MouseInterval)
	defer mouse.Stop()
	defer c.shutdown()

	for {
		select {
		case fn := <-c.dispatchCh:
			c.execute(fn)

		case <-render.C:
			c.tick(c.cfg.Now())

		case <-mouse.C:
			c.pollMouse()

		case <-ctx.Done():
			c.Close()
			return ctx.Err()

		case <-c.done:
			return nil
		}
	}
}

// Close stops the client. Run returns and every connection is closed.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// execute runs fn with panic recovery so one bad handler cannot take the
// loop down.
func (c *Client) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// post queues fn for the loop. It reports false once the client is closed.
func (c *Client) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.dispatchCh <- fn:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) exec(fn func()) error {
	if !c.post(fn) {
		return ErrClientClosed
	}
	return nil
}

// Do runs fn on the loop with the coordinator and waits for it. fn must
// not retain any state it reads; copy what it needs.
func (c *Client) Do(ctx context.Context, fn func(*session.Coordinator)) error {
	ran := make(chan struct{})
	if !c.post(func() {
		defer close(ran)
		fn(c.coord)
	}) {
		return ErrClientClosed
	}
	select {
	case <-ran:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of every session, primary first.
func (c *Client) Snapshot(ctx context.Context) ([]session.Snapshot, error) {
	var out []session.Snapshot
	err := c.Do(ctx, func(co *session.Coordinator) {
		now := c.cfg.Now()
		for _, st := range co.Sessions() {
			snap := st.Snapshot(now)
			snap.Active = st == co.Active()
			out = append(out, snap)
		}
	})
	return out, err
}

// Connect opens the connection of role unless it is already open or
// opening.
func (c *Client) Connect(role world.Role) error {
	return c.exec(func() {
		if st := c.coord.State(role); st != nil {
			c.connect(st)
		}
	})
}

// Play spawns role, connecting first if needed; the spawn is then sent
// as soon as the connection opens.
func (c *Client) Play(role world.Role) error {
	return c.exec(func() {
		st := c.coord.State(role)
		if st == nil {
			return
		}
		if st.Connected {
			c.spawn(st)
			return
		}
		st.PendingPlay = true
		c.connect(st)
	})
}

// SetIdentity changes the identity of role and pushes it to the server
// if connected.
func (c *Client) SetIdentity(role world.Role, id protocol.Identity) error {
	data, err := protocol.EncodeIdentityUpdate(id)
	if err != nil {
		return err
	}
	return c.exec(func() {
		if st := c.coord.State(role); st != nil {
			st.Identity = id
			c.send(st, data)
		}
	})
}

// SetAutoRespawn arms or disarms automatic respawn for role.
func (c *Client) SetAutoRespawn(role world.Role, on bool) error {
	return c.exec(func() {
		if st := c.coord.State(role); st != nil {
			st.AutoRespawn = on
			if !on {
				c.CancelRespawn(st)
			}
		}
	})
}

// ToggleActive switches the active session, creating and connecting the
// secondary session on first use.
func (c *Client) ToggleActive() error {
	return c.exec(func() {
		in, needConnect := c.coord.ToggleActive()
		c.logger.Info("active session switched", "session", in.Role.String())
		if needConnect {
			c.connect(in)
		}
	})
}

// SelectServer moves the primary session to url and discards the
// secondary session.
func (c *Client) SelectServer(url string) error {
	return c.exec(func() {
		if discarded := c.coord.SelectServer(url); discarded != nil {
			c.remove(discarded)
		}
		p := c.coord.Primary()
		c.teardown(p, c.slotFor(p))
		p.ResetView()
		p.Backoff.Reset()
		c.logger.Info("server selected", "url", url)
		c.connect(p)
	})
}

// SetMouse sets the world position the active session steers toward.
func (c *Client) SetMouse(x, y int32) error {
	return c.exec(func() {
		c.mouseX, c.mouseY, c.mouseSet = x, y, true
	})
}

// Action sends a single-byte action on the active session. Actions over
// the configured rate are dropped.
func (c *Client) Action(a protocol.Action) error {
	data, err := protocol.EncodeAction(a)
	if err != nil {
		return err
	}
	return c.exec(func() {
		if !c.limiter.AllowN(c.cfg.Now(), 1) {
			c.metrics.actionDropped(a.String())
			c.logger.Debug("action throttled", "action", a.String())
			return
		}
		c.send(c.coord.Active(), data)
	})
}

// TeleportFollow starts or stops following target.
func (c *Client) TeleportFollow(target uint32, start bool) error {
	return c.sendActive(protocol.EncodeTeleportFollow(target, start), nil)
}

// ForceSplit asks the server to split target.
func (c *Client) ForceSplit(target uint32) error {
	return c.sendActive(protocol.EncodeForceSplit(target), nil)
}

// DirectionLock locks movement along (dx, dy); a zero vector clears it.
func (c *Client) DirectionLock(dx, dy float64) error {
	return c.sendActive(protocol.EncodeDirectionLock(dx, dy))
}

// Burst asks the server to repeat a move along (dx, dy) count times.
func (c *Client) Burst(dx, dy float64, count uint8) error {
	return c.sendActive(protocol.EncodeBurst(dx, dy, count))
}

func (c *Client) sendActive(data []byte, err error) error {
	if err != nil {
		return err
	}
	return c.exec(func() { c.send(c.coord.Active(), data) })
}

// --- loop side ---

func (c *Client) slotFor(st *session.State) *slot {
	sl, ok := c.slots[st]
	if !ok {
		sl = &slot{}
		c.slots[st] = sl
	}
	return sl
}

// connect opens a connection for st. It is a no-op while one is open or
// opening.
func (c *Client) connect(st *session.State) {
	sl := c.slotFor(st)
	if st.Connecting || (st.Connected && sl.conn != nil) {
		return
	}
	c.teardown(st, sl)
	sl.gen++
	gen := sl.gen

	st.Connecting = true
	c.cfg.Listener.Connecting(st.Role, true)

	role, url := st.Role.String(), st.URL
	ctx, cancel := context.WithCancel(context.Background())
	sl.cancel = cancel
	c.logger.Info("connecting", "session", role, "url", url)

	go func() {
		spanCtx, span := startConnectSpan(ctx, c.tracer, role, url)
		conn, err := c.cfg.Dialer.Dial(spanCtx, url)
		endSpan(span, err)
		if !c.post(func() { c.onDialed(st, gen, conn, err) }) && conn != nil {
			conn.Close()
		}
	}()
}

// teardown drops the connection of st without scheduling a reconnect. A
// dial still in flight is cancelled and its result discarded, so st is
// left neither connected nor connecting.
func (c *Client) teardown(st *session.State, sl *slot) {
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
	sl.reconnect.Stop()
	sl.keepalive.Stop()
	sl.respawn.Stop()
	if sl.conn != nil {
		sl.conn.Close()
		sl.conn = nil
	}
	sl.gen++
	st.Connected, st.Connecting = false, false
	c.metrics.setConnected(st.Role.String(), false)
}

// remove tears down st and forgets it.
func (c *Client) remove(st *session.State) {
	if sl, ok := c.slots[st]; ok {
		c.teardown(st, sl)
		delete(c.slots, st)
		return
	}
	st.Connected, st.Connecting = false, false
	c.metrics.setConnected(st.Role.String(), false)
}

func (c *Client) onDialed(st *session.State, gen uint64, conn Conn, err error) {
	sl, ok := c.slots[st]
	if !ok || sl.gen != gen {
		if conn != nil {
			conn.Close()
		}
		return
	}
	if sl.cancel != nil {
		sl.cancel()
		sl.cancel = nil
	}
	st.Connecting = false

	if err != nil {
		c.logger.Warn("connect failed", "session", st.Role.String(), "url", st.URL, "error", err)
		c.scheduleReconnect(st, sl)
		return
	}
	c.onOpen(st, sl, gen, conn)
}

func (c *Client) onOpen(st *session.State, sl *slot, gen uint64, conn Conn) {
	role := st.Role.String()
	sl.conn = conn
	sl.openedAt = c.cfg.Now()
	sl.bytesIn, sl.bytesOut = 0, 0
	sl.mouseSent = false

	st.Connected = true
	st.EverConnected = true
	st.Backoff.Reset()
	c.cfg.Listener.Connecting(st.Role, false)
	c.metrics.setConnected(role, true)
	c.logger.Info("connected", "session", role, "url", st.URL)

	for _, frame := range protocol.EncodeHandshake() {
		c.send(st, frame)
	}
	if data, err := protocol.EncodeIdentityUpdate(st.Identity); err != nil {
		c.logger.Warn("identity not sent", "session", role, "error", err)
	} else {
		c.send(st, data)
	}
	if st.PendingPlay {
		st.PendingPlay = false
		c.spawn(st)
	}

	go c.readLoop(st, gen, conn)
}

// readLoop forwards every inbound message of conn to the loop.
func (c *Client) readLoop(st *session.State, gen uint64, conn Conn) {
	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			c.post(func() { c.onClosed(st, gen, err) })
			return
		}
		if !c.post(func() { c.onMessage(st, gen, msg) }) {
			return
		}
	}
}

func (c *Client) onMessage(st *session.State, gen uint64, msg []byte) {
	sl, ok := c.slots[st]
	if !ok || sl.gen != gen || sl.conn == nil {
		return
	}
	now := c.cfg.Now()
	role := st.Role.String()
	sl.bytesIn += uint64(len(msg))

	if c.cfg.Recorder != nil {
		if err := c.cfg.Recorder.Record(role, now, msg); err != nil {
			c.logger.Warn("recording failed", "session", role, "error", err)
		}
	}

	op := "empty"
	if len(msg) > 0 {
		op = protocol.Opcode(msg[0]).String()
	}
	c.metrics.frameIn(role, op, len(msg))

	f, err := protocol.Decode(msg)
	if err != nil {
		c.metrics.decodeError(role)
		c.logger.Error("frame decode error", "session", role, "opcode", op, "bytes", len(msg), "error", err)
		c.drop(st, sl, err)
		return
	}

	span := startDispatchSpan(c.tracer, role, op, len(msg))
	start := time.Now()
	err = c.dispatcher.Dispatch(st, f, now)
	c.metrics.observeDispatch(time.Since(start).Seconds())
	endSpan(span, err)
	if err != nil {
		c.logger.Error("dispatch failed", "session", role, "opcode", op, "error", err)
	}
}

// drop closes the current connection of st as failed.
func (c *Client) drop(st *session.State, sl *slot, cause error) {
	conn := sl.conn
	c.onClosed(st, sl.gen, cause)
	if conn != nil {
		conn.Close()
	}
}

func (c *Client) onClosed(st *session.State, gen uint64, cause error) {
	sl, ok := c.slots[st]
	if !ok || sl.gen != gen {
		return
	}
	role := st.Role.String()
	now := c.cfg.Now()

	sl.gen++
	sl.conn = nil
	sl.keepalive.Stop()
	sl.respawn.Stop()

	wasAlive := st.Alive()
	st.Connected = false
	st.Connecting = false
	st.ResetView()
	c.metrics.setConnected(role, false)
	c.cfg.Listener.Connecting(st.Role, true)

	// The own set is now empty. A session that was playing spawns again
	// as soon as the next connection opens.
	c.dispatcher.showOverlay(st, false)
	if wasAlive && st.HasSpawned && st.AutoRespawn {
		st.PendingPlay = true
	}

	level := slog.LevelWarn
	if isExpectedClose(cause) {
		level = slog.LevelInfo
	}
	c.logger.Log(context.Background(), level, "connection closed",
		"session", role,
		"url", st.URL,
		"up", formatDuration(now.Sub(sl.openedAt)),
		"in", humanize.Bytes(sl.bytesIn),
		"out", humanize.Bytes(sl.bytesOut),
		"error", cause)

	c.scheduleReconnect(st, sl)
}

// scheduleReconnect arms a reconnect after the next backoff delay. The
// attempt is skipped if a newer connection for st began in the meantime.
func (c *Client) scheduleReconnect(st *session.State, sl *slot) {
	delay := st.Backoff.Next()
	gen := sl.gen
	role := st.Role.String()
	c.metrics.reconnect(role)
	c.logger.Info("reconnect scheduled", "session", role, "in", formatDuration(delay))

	sl.reconnect.Stop()
	sl.reconnect = c.after(delay, func() {
		cur, ok := c.slots[st]
		if !ok || cur != sl || sl.gen != gen || st.Connected || st.Connecting {
			return
		}
		c.connect(st)
	})
}

// send writes data on st's connection. Failures are logged and swallowed.
func (c *Client) send(st *session.State, data []byte) {
	sl, ok := c.slots[st]
	if !ok || sl.conn == nil || !st.Connected || len(data) == 0 {
		return
	}
	role := st.Role.String()
	if err := sl.conn.WriteMessage(data); err != nil {
		c.metrics.sendError(role)
		c.logger.Debug("send failed", "session", role, "opcode", protocol.Opcode(data[0]).Hex(), "error", err)
		return
	}
	sl.bytesOut += uint64(len(data))
	c.metrics.frameOut(role, protocol.Opcode(data[0]).Hex(), len(data))
}

func (c *Client) spawn(st *session.State) {
	data, err := protocol.EncodeSpawn(st.Identity)
	if err != nil {
		c.logger.Warn("spawn not sent", "session", st.Role.String(), "error", err)
		return
	}
	st.HasSpawned = true
	c.send(st, data)
}

func (c *Client) tick(now time.Time) {
	for _, st := range c.coord.Sessions() {
		st.Tick(now)
	}
}

// pollMouse sends the mouse target on the active session if it moved.
func (c *Client) pollMouse() {
	if !c.mouseSet {
		return
	}
	st := c.coord.Active()
	sl, ok := c.slots[st]
	if !ok || !st.Connected {
		return
	}
	if sl.mouseSent && sl.mouseX == c.mouseX && sl.mouseY == c.mouseY {
		return
	}
	c.send(st, protocol.EncodeMouse(c.mouseX, c.mouseY))
	sl.mouseSent, sl.mouseX, sl.mouseY = true, c.mouseX, c.mouseY
}

// shutdown runs on the loop as Run exits.
func (c *Client) shutdown() {
	for st, sl := range c.slots {
		c.teardown(st, sl)
	}
	c.logger.Info("client stopped")
}

// --- Effects ---

// StartKeepalive sends a stat request now and then every
// KeepaliveInterval, stamping each one for latency measurement.
func (c *Client) StartKeepalive(st *session.State) {
	sl := c.slotFor(st)
	sl.keepalive.Stop()

	ping, _ := protocol.EncodeAction(protocol.ActionStatRequest)
	send := func() {
		if !st.Connected {
			return
		}
		st.LastPing = c.cfg.Now()
		c.send(st, ping)
	}

	var loop func()
	loop = func() {
		send()
		sl.keepalive = c.after(c.cfg.KeepaliveInterval, loop)
	}
	send()
	sl.keepalive = c.after(c.cfg.KeepaliveInterval, loop)
}

// ArmRespawn schedules a spawn after RespawnDelay unless st comes back
// to life or disconnects first.
func (c *Client) ArmRespawn(st *session.State) {
	sl := c.slotFor(st)
	sl.respawn.Stop()
	sl.respawn = c.after(c.cfg.RespawnDelay, func() {
		if !st.Connected || st.Alive() || !st.AutoRespawn {
			return
		}
		c.logger.Info("auto-respawn", "session", st.Role.String())
		c.spawn(st)
	})
}

// CancelRespawn drops a pending automatic spawn.
func (c *Client) CancelRespawn(st *session.State) {
	if sl, ok := c.slots[st]; ok {
		sl.respawn.Stop()
		sl.respawn = nil
	}
}
