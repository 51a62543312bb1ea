package codec

import "github.com/ssargent/gdr/pkg/replay"

// ReplayExtension lets a consumer carry its own top-level fields through the
// codec. ParseReplay receives a copy of the whole decoded tree after all known
// fields have been assigned, so changes to it do not affect decoding;
// SaveReplay seeds the tree that known fields are then written over.
type ReplayExtension interface {
	ParseReplay(r *replay.Replay, tree Tree)
	SaveReplay(r *replay.Replay) Tree
}

// InputExtension is the per-input counterpart of ReplayExtension
type InputExtension interface {
	ParseInput(in *replay.Input, tree Tree)
	SaveInput(in *replay.Input) Tree
}

// NopExtension ignores extension data. It is the default for both hooks.
type NopExtension struct{}

func (NopExtension) ParseReplay(*replay.Replay, Tree) {}
func (NopExtension) SaveReplay(*replay.Replay) Tree   { return nil }
func (NopExtension) ParseInput(*replay.Input, Tree)   {}
func (NopExtension) SaveInput(*replay.Input) Tree     { return nil }

// ReplayExtensionFuncs adapts a pair of functions to ReplayExtension. Either
// function may be nil.
type ReplayExtensionFuncs struct {
	Parse func(r *replay.Replay, tree Tree)
	Save  func(r *replay.Replay) Tree
}

func (f ReplayExtensionFuncs) ParseReplay(r *replay.Replay, tree Tree) {
	if f.Parse != nil {
		f.Parse(r, tree)
	}
}

func (f ReplayExtensionFuncs) SaveReplay(r *replay.Replay) Tree {
	if f.Save == nil {
		return nil
	}
	return f.Save(r)
}

// InputExtensionFuncs adapts a pair of functions to InputExtension. Either
// function may be nil.
type InputExtensionFuncs struct {
	Parse func(in *replay.Input, tree Tree)
	Save  func(in *replay.Input) Tree
}

func (f InputExtensionFuncs) ParseInput(in *replay.Input, tree Tree) {
	if f.Parse != nil {
		f.Parse(in, tree)
	}
}

func (f InputExtensionFuncs) SaveInput(in *replay.Input) Tree {
	if f.Save == nil {
		return nil
	}
	return f.Save(in)
}

var (
	replayKeys = knownKeys(replayFields, keyInputs)
	inputKeys  = knownKeys(inputFields)
)

// PassThrough keeps every unrecognized key. On decode the extra keys land in
// the Extension map of the replay or input; on encode they are written back
// before the known fields.
type PassThrough struct{}

func (PassThrough) ParseReplay(r *replay.Replay, tree Tree) {
	r.Extension = unknownKeys(tree, replayKeys)
}

func (PassThrough) SaveReplay(r *replay.Replay) Tree {
	return r.Extension
}

func (PassThrough) ParseInput(in *replay.Input, tree Tree) {
	in.Extension = unknownKeys(tree, inputKeys)
}

func (PassThrough) SaveInput(in *replay.Input) Tree {
	return in.Extension
}

// unknownKeys copies the entries of tree that are not in known. It returns
// nil when there are none.
func unknownKeys(tree Tree, known map[string]struct{}) map[string]any {
	var out map[string]any
	for k, v := range tree {
		if _, ok := known[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}
