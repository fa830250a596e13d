package monorepo

// State is a step of synthesis. A root moves through the states in order; FirstPassSynth is skipped when every
// project directory already exists.
type State int

const (
	Configuring State = iota
	PreSynthesizing
	FirstPassSynth
	ManifestGeneration
	FinalSynth
	Done
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "Configuring"
	case PreSynthesizing:
		return "PreSynthesizing"
	case FirstPassSynth:
		return "FirstPassSynth"
	case ManifestGeneration:
		return "ManifestGeneration"
	case FinalSynth:
		return "FinalSynth"
	case Done:
		return "Done"
	default:
		return "Unknown"
	}
}
