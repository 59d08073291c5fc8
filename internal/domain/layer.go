package domain

// Layer names one of the five fixed partitions of the memory store.
// Each layer is indexed and queried independently; a record belongs to
// exactly one layer for its entire lifetime.
type Layer string

const (
	LayerShortTerm Layer = "short_term"
	LayerLongTerm  Layer = "long_term"
	LayerWorking   Layer = "working"
	LayerEpisodic  Layer = "episodic"
	LayerSemantic  Layer = "semantic"
)

func AllLayers() []Layer {
	return []Layer{LayerShortTerm, LayerLongTerm, LayerWorking, LayerEpisodic, LayerSemantic}
}

func ValidLayer(l string) bool {
	switch Layer(l) {
	case LayerShortTerm, LayerLongTerm, LayerWorking, LayerEpisodic, LayerSemantic:
		return true
	}
	return false
}
