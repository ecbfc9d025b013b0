// Package controller runs the client side of a host session: a turn-based
// loop that sends one STEP batch per call and routes the host's labeled data
// frames to the add-ons that asked for them.
package controller

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"roomcraft.ai/internal/ids"
	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/trace"
)

// AddOn is a command producer and frame consumer attached to a controller.
// InitCommands runs once on the add-on's first step; DrainCommands runs on
// every step; OnResponse sees every frame batch, in attach order.
type AddOn interface {
	InitCommands() []protocol.Command
	OnResponse(frames []json.RawMessage) error
	DrainCommands() []protocol.Command
}

// Conn is the message transport the controller runs over. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Options configure a controller. The zero value is usable.
type Options struct {
	// Logger for session-level events. Nil disables logging.
	Logger *log.Logger
	// Trace records every step envelope. Nil disables tracing.
	Trace *trace.Recorder
	// IDStart is the first object id handed out; defaults to 1.
	IDStart int
}

// Controller owns the session: the connection, the id allocator and the
// attached add-ons. Not safe for concurrent use; the protocol is strictly
// turn-based, so there is exactly one in-flight step at a time.
type Controller struct {
	conn    Conn
	logger  *log.Logger
	rec     *trace.Recorder
	seq     *ids.Sequence
	welcome protocol.WelcomeMsg

	addOns []AddOn
	inited map[AddOn]bool
	tick   uint64
}

// Dial connects to a host, performs the HELLO/WELCOME handshake and returns
// a ready controller.
func Dial(url, name string, opts Options) (*Controller, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("controller: dial %s: %w", url, err)
	}
	c, err := New(conn, name, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// New performs the handshake over an existing connection. The controller
// takes ownership of conn.
func New(conn Conn, name string, opts Options) (*Controller, error) {
	if opts.IDStart <= 0 {
		opts.IDStart = 1
	}
	c := &Controller{
		conn:   conn,
		logger: opts.Logger,
		rec:    opts.Trace,
		seq:    ids.NewSequence(opts.IDStart),
		inited: map[AddOn]bool{},
	}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ControllerName:  name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		return nil, fmt.Errorf("controller: send HELLO: %w", err)
	}
	if err := conn.ReadJSON(&c.welcome); err != nil {
		return nil, fmt.Errorf("controller: read WELCOME: %w", err)
	}
	if c.welcome.Type != protocol.TypeWelcome {
		return nil, fmt.Errorf("controller: handshake got %q, want %s", c.welcome.Type, protocol.TypeWelcome)
	}
	if c.welcome.ProtocolVersion != protocol.Version {
		return nil, fmt.Errorf("controller: protocol version %q, client speaks %s", c.welcome.ProtocolVersion, protocol.Version)
	}
	c.logf("WELCOME session=%s scene=%q seed=%d", c.welcome.SessionID, c.welcome.SceneName, c.welcome.Seed)
	return c, nil
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Welcome returns the host's handshake reply.
func (c *Controller) Welcome() protocol.WelcomeMsg { return c.welcome }

// NextID allocates a session-unique object id.
func (c *Controller) NextID() int { return c.seq.NextID() }

// IDs exposes the allocator for add-ons constructed before the controller
// steps.
func (c *Controller) IDs() ids.Source { return c.seq }

// Attach registers an add-on. Its InitCommands go out with the next step.
func (c *Controller) Attach(a AddOn) {
	c.addOns = append(c.addOns, a)
}

// Tick returns the tick of the last completed step.
func (c *Controller) Tick() uint64 { return c.tick }

// Step sends one STEP carrying extra plus everything the add-ons queued,
// waits for the RESP, and dispatches its frames to every add-on. A host
// error fails the step; the frames that did arrive are still dispatched
// first so add-ons stay consistent with what the host executed.
func (c *Controller) Step(extra ...protocol.Command) (*protocol.RespMsg, error) {
	commands := append([]protocol.Command(nil), extra...)
	for _, a := range c.addOns {
		if !c.inited[a] {
			commands = append(commands, a.InitCommands()...)
			c.inited[a] = true
		}
		commands = append(commands, a.DrainCommands()...)
	}

	c.tick++
	step := protocol.StepMsg{
		Type:            protocol.TypeStep,
		ProtocolVersion: protocol.Version,
		Tick:            c.tick,
		Commands:        commands,
	}
	if err := c.conn.WriteJSON(step); err != nil {
		return nil, fmt.Errorf("controller: send STEP %d: %w", c.tick, err)
	}

	var resp protocol.RespMsg
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("controller: read RESP %d: %w", c.tick, err)
	}
	if resp.Type != protocol.TypeResp {
		return nil, fmt.Errorf("controller: step %d got %q, want %s", c.tick, resp.Type, protocol.TypeResp)
	}
	if resp.Tick != c.tick {
		return nil, fmt.Errorf("controller: step %d answered with tick %d", c.tick, resp.Tick)
	}
	c.record(commands, &resp)

	for _, a := range c.addOns {
		if err := a.OnResponse(resp.Frames); err != nil {
			return &resp, fmt.Errorf("controller: step %d: %w", c.tick, err)
		}
	}
	if resp.Error != nil {
		code := resp.Error.Code
		if !protocol.IsKnownCode(code) {
			c.logf("WARN unknown error code %q", code)
		}
		return &resp, fmt.Errorf("controller: step %d: %s: %s", c.tick, code, resp.Error.Message)
	}
	return &resp, nil
}

func (c *Controller) record(commands []protocol.Command, resp *protocol.RespMsg) {
	if c.rec == nil {
		return
	}
	e := trace.Entry{
		Tick:     resp.Tick,
		Commands: commands,
		Frames:   resp.Frames,
	}
	if resp.Error != nil {
		e.Error = fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Message)
	}
	if err := c.rec.Record(e); err != nil {
		c.logf("WARN trace: %v", err)
	}
}

// Close closes the connection and the trace recorder, if any.
func (c *Controller) Close() error {
	err := c.conn.Close()
	if c.rec != nil {
		if terr := c.rec.Close(); err == nil {
			err = terr
		}
	}
	return err
}
