package protocol

import "encoding/json"

// Output data frame type ids (4 chars, set by the host build).
const (
	FrameRaycast      = "rayc"
	FrameOverlap      = "over"
	FrameSceneRegions = "sreg"
	FrameSegmentation = "segm"
	FrameTrigger      = "trig"
)

// FrameType extracts the type id of a labeled data frame.
// Frames with no type id (or non-JSON frames) return "".
func FrameType(b []byte) string {
	var f struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return ""
	}
	return f.Type
}

type RaycastFrame struct {
	Type  string `json:"type"`
	ID    int    `json:"id"`
	Hit   bool   `json:"hit"`
	Point Vec3   `json:"point,omitempty"`
}

type OverlapFrame struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	ObjectIDs []int  `json:"object_ids"`
}

type RegionFrame struct {
	ID     int     `json:"id"`
	Center Vec3    `json:"center"`
	XMin   float64 `json:"x_min"`
	XMax   float64 `json:"x_max"`
	ZMin   float64 `json:"z_min"`
	ZMax   float64 `json:"z_max"`
}

type SceneRegionsFrame struct {
	Type    string        `json:"type"`
	Regions []RegionFrame `json:"regions"`
}

type SegmentationObject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type SegmentationFrame struct {
	Type    string               `json:"type"`
	Objects []SegmentationObject `json:"objects"`
}

// Trigger collision states.
const (
	TriggerEnter = "enter"
	TriggerStay  = "stay"
	TriggerExit  = "exit"
)

type TriggerEvent struct {
	TriggerID  int    `json:"trigger_id"`
	ColliderID int    `json:"collider_id"`
	CollideeID int    `json:"collidee_id"`
	State      string `json:"state"`
}

type TriggerFrame struct {
	Type   string         `json:"type"`
	Events []TriggerEvent `json:"events"`
}
