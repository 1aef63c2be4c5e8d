package trirep

// ADA-derived room-partitioning constants, recovered from
// room_parameters.h: door and hallway dimensions mandated by ADA
// accessibility standards, used as thresholds in room labeling and
// simplification. All units are meters.
const (
	adaMinDoorOpeningWidth = 0.8128
	adaMaxDoorOpeningWidth = 1.2192
	adaPassingSpace        = 1.524

	// MinLocalMaxCircumradius is the smallest circumradius a triangle can
	// have and still seed a room: half the smallest valid room's
	// passing-space radius.
	MinLocalMaxCircumradius = adaPassingSpace / 4

	// MaxDoorWidth is the widest a shared boundary between two rooms can
	// be before unlabel_extra_rooms merges them; wide enough to allow
	// double doors.
	MaxDoorWidth = 2 * adaMaxDoorOpeningWidth

	// MinRoomPerimeter is the smallest perimeter a room (or an
	// interroom column) may have.
	MinRoomPerimeter = 4 * adaPassingSpace
)
