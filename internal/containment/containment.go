// Package containment tracks which objects rest on, sit inside, or are
// enclosed by container models. Containers are fitted with trigger colliders
// once their object ids are known; the host reports collider overlap events
// every step and the manager rebuilds the containment state from them.
package containment

import (
	"encoding/json"
	"fmt"

	"roomcraft.ai/internal/ids"
	"roomcraft.ai/internal/protocol"
)

// Tag classifies a containment relationship.
type Tag string

const (
	TagOn       Tag = "on"
	TagInside   Tag = "inside"
	TagEnclosed Tag = "enclosed"
)

// TriggerShape is one trigger collider to attach to a container model.
// The concrete kinds are Box, Cylinder and Sphere; nothing else implements
// the interface.
type TriggerShape interface {
	shape()
}

// Box is an axis-aligned box collider centered at Center relative to the
// container's pivot.
type Box struct {
	Tag    Tag
	Center protocol.Vec3
	Scale  protocol.Vec3
}

// Cylinder is a vertical cylinder collider.
type Cylinder struct {
	Tag    Tag
	Center protocol.Vec3
	Scale  protocol.Vec3
}

// Sphere is a sphere collider of the given diameter.
type Sphere struct {
	Tag      Tag
	Center   protocol.Vec3
	Diameter float64
}

func (Box) shape()      {}
func (Cylinder) shape() {}
func (Sphere) shape()   {}

// colliderCommand builds the add-trigger command for a shape attached to
// objectID. Shapes outside the sealed set are a hard error rather than a
// silently dropped collider.
func colliderCommand(s TriggerShape, objectID, triggerID int) (protocol.Command, error) {
	switch v := s.(type) {
	case Box:
		pos, scale := v.Center, v.Scale
		return protocol.Command{
			Type:      protocol.CmdAddBoxTrigger,
			ID:        objectID,
			TriggerID: triggerID,
			Position:  &pos,
			Scale:     &scale,
			Tag:       string(v.Tag),
		}, nil
	case Cylinder:
		pos, scale := v.Center, v.Scale
		return protocol.Command{
			Type:      protocol.CmdAddCylinderTrigger,
			ID:        objectID,
			TriggerID: triggerID,
			Position:  &pos,
			Scale:     &scale,
			Tag:       string(v.Tag),
		}, nil
	case Sphere:
		pos := v.Center
		return protocol.Command{
			Type:      protocol.CmdAddSphereTrigger,
			ID:        objectID,
			TriggerID: triggerID,
			Position:  &pos,
			Diameter:  v.Diameter,
			Tag:       string(v.Tag),
		}, nil
	default:
		return protocol.Command{}, fmt.Errorf("containment: unknown trigger shape %T", s)
	}
}

// Event is one containment relationship observed this step.
type Event struct {
	ContainerID int
	ObjectID    int
	Tag         Tag
}

// Manager is an add-on that maintains containment events. Register the
// collider layout per container model before stepping; when segmentation
// data names a registered model, the manager attaches its colliders and
// starts reporting events for it.
type Manager struct {
	ids    ids.Source
	shapes map[string][]TriggerShape

	triggers map[int]attachment
	fitted   map[int]bool
	events   []Event
	commands []protocol.Command
}

type attachment struct {
	objectID int
	tag      Tag
}

func NewManager(src ids.Source) *Manager {
	return &Manager{
		ids:      src,
		shapes:   map[string][]TriggerShape{},
		triggers: map[int]attachment{},
		fitted:   map[int]bool{},
	}
}

// Register sets the collider layout for a container model name, replacing
// any previous layout. Objects already fitted keep their old colliders.
func (m *Manager) Register(modelName string, shapes ...TriggerShape) {
	m.shapes[modelName] = shapes
}

// InitCommands requests segmentation data so container objects can be
// matched to their model names.
func (m *Manager) InitCommands() []protocol.Command {
	return []protocol.Command{{Type: protocol.CmdSendSegmentationColors}}
}

// OnResponse fits colliders to newly seen container objects and rebuilds
// the containment events from this step's trigger frames. Events do not
// accumulate across steps; an object that left a container is simply absent
// from the next rebuild.
func (m *Manager) OnResponse(frames []json.RawMessage) error {
	m.events = nil
	for _, frame := range frames {
		switch protocol.FrameType(frame) {
		case protocol.FrameSegmentation:
			var f protocol.SegmentationFrame
			if err := json.Unmarshal(frame, &f); err != nil {
				return fmt.Errorf("containment: segmentation frame: %w", err)
			}
			if err := m.fit(f.Objects); err != nil {
				return err
			}
		case protocol.FrameTrigger:
			var f protocol.TriggerFrame
			if err := json.Unmarshal(frame, &f); err != nil {
				return fmt.Errorf("containment: trigger frame: %w", err)
			}
			for _, ev := range f.Events {
				if ev.State == protocol.TriggerExit {
					continue
				}
				att, ok := m.triggers[ev.TriggerID]
				if !ok {
					continue
				}
				m.events = append(m.events, Event{
					ContainerID: att.objectID,
					ObjectID:    ev.CollideeID,
					Tag:         att.tag,
				})
			}
		}
	}
	return nil
}

func (m *Manager) fit(objects []protocol.SegmentationObject) error {
	for _, obj := range objects {
		if m.fitted[obj.ID] {
			continue
		}
		shapes, ok := m.shapes[obj.Name]
		if !ok {
			continue
		}
		for _, s := range shapes {
			triggerID := m.ids.NextID()
			cmd, err := colliderCommand(s, obj.ID, triggerID)
			if err != nil {
				return err
			}
			m.commands = append(m.commands, cmd)
			m.triggers[triggerID] = attachment{objectID: obj.ID, tag: shapeTag(s)}
		}
		m.fitted[obj.ID] = true
	}
	return nil
}

func shapeTag(s TriggerShape) Tag {
	switch v := s.(type) {
	case Box:
		return v.Tag
	case Cylinder:
		return v.Tag
	case Sphere:
		return v.Tag
	}
	return ""
}

// DrainCommands returns and clears the queued collider commands.
func (m *Manager) DrainCommands() []protocol.Command {
	cmds := m.commands
	m.commands = nil
	return cmds
}

// Events returns the containment relationships observed in the most recent
// step. The slice is rebuilt on every OnResponse.
func (m *Manager) Events() []Event {
	return m.events
}

// ContainedBy returns the ids of objects currently related to the container,
// filtered by tag ("" matches any tag).
func (m *Manager) ContainedBy(containerID int, tag Tag) []int {
	var out []int
	for _, ev := range m.events {
		if ev.ContainerID != containerID {
			continue
		}
		if tag != "" && ev.Tag != tag {
			continue
		}
		out = append(out, ev.ObjectID)
	}
	return out
}

// Reset forgets fitted objects and queued events and requests fresh
// segmentation data. Registered layouts survive; call after a scene reload.
func (m *Manager) Reset() {
	m.triggers = map[int]attachment{}
	m.fitted = map[int]bool{}
	m.events = nil
	m.commands = append(m.commands, protocol.Command{Type: protocol.CmdSendSegmentationColors})
}
