package fan

import "github.com/nerrad567/nexhome-core/internal/device"

// Model is a fan hardware model. The set is closed: every device type the
// integration drives maps to exactly one Model.
type Model int

// Known models.
const (
	ModelUnknown Model = iota

	// ModelMultiSpeed is device type "10": several speed levels plus auto.
	ModelMultiSpeed

	// ModelDualSpeed is device type "133": low and high only.
	ModelDualSpeed
)

// ModelFor resolves a gateway device-type id. Unknown ids report false.
func ModelFor(deviceTypeID string) (Model, bool) {
	switch deviceTypeID {
	case device.TypeFanMultiSpeed:
		return ModelMultiSpeed, true
	case device.TypeFanDualSpeed:
		return ModelDualSpeed, true
	default:
		return ModelUnknown, false
	}
}

func (m Model) String() string {
	switch m {
	case ModelMultiSpeed:
		return "multi_speed"
	case ModelDualSpeed:
		return "dual_speed"
	default:
		return "unknown"
	}
}

// Vocabulary returns the model's preset vocabulary. ModelUnknown has an
// empty one.
func (m Model) Vocabulary() Vocabulary {
	switch m {
	case ModelMultiSpeed:
		return multiSpeedVocabulary
	case ModelDualSpeed:
		return dualSpeedVocabulary
	default:
		return Vocabulary{}
	}
}
