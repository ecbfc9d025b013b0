package protocol

// Command types understood by the host build.
const (
	CmdSendSceneRegions       = "send_scene_regions"
	CmdSendRaycast            = "send_raycast"
	CmdSendOverlapBox         = "send_overlap_box"
	CmdSendSegmentationColors = "send_segmentation_colors"
	CmdAddObject              = "add_object"
	CmdRotateObjectBy         = "rotate_object_by"
	CmdParentObjectToObject   = "parent_object_to_object"
	CmdUnparentObject         = "unparent_object"
	CmdAddBoxTrigger          = "add_box_trigger_collider"
	CmdAddCylinderTrigger     = "add_cylinder_trigger_collider"
	CmdAddSphereTrigger       = "add_sphere_trigger_collider"
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Command is one structured instruction for the host build. The host routes
// on $type; every other field is optional and set only where the command
// needs it (one flat struct, the same shape the wire uses).
type Command struct {
	Type string `json:"$type"`
	ID   int    `json:"id,omitempty"`

	// Probes.
	Origin      *Vec3 `json:"origin,omitempty"`
	Destination *Vec3 `json:"destination,omitempty"`
	HalfExtents *Vec3 `json:"half_extents,omitempty"`

	// Object placement.
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Position *Vec3  `json:"position,omitempty"`
	Rotation *Vec3  `json:"rotation,omitempty"`
	Kinematic bool  `json:"kinematic,omitempty"`

	// Group rotation.
	ParentID    int     `json:"parent_id,omitempty"`
	Angle       float64 `json:"angle,omitempty"`
	Axis        string  `json:"axis,omitempty"`
	IsWorld     bool    `json:"is_world,omitempty"`
	UseCentroid bool    `json:"use_centroid,omitempty"`

	// Trigger colliders.
	TriggerID int     `json:"trigger_id,omitempty"`
	Scale     *Vec3   `json:"scale,omitempty"`
	Diameter  float64 `json:"diameter,omitempty"`
	Tag       string  `json:"tag,omitempty"`
}
