// Package fan exposes Nexhome fans as entities.
//
// Two hardware models are supported, selected by gateway device type:
//
//	"10"   ModelMultiSpeed  low "1", medium "2", high "3", auto "4"
//	"133"  ModelDualSpeed   low "1", high "3"
//
// A Fan reads PowerSwitch and WindSpeed from its coordinator's record and
// sends every change as a gateway command. WindSpeed codes the model does not
// know decode to no preset, and unknown preset labels are ignored.
package fan
