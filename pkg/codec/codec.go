package codec

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/gdr/pkg/logger"
	"github.com/ssargent/gdr/pkg/replay"
)

// ReplayCodec converts replays to and from their wire encodings
type ReplayCodec struct {
	replayExt      ReplayExtension
	inputExt       InputExtension
	maxPayloadSize int
	log            logrus.FieldLogger
}

// NewReplayCodec creates a new replay codec instance
func NewReplayCodec(opts ...Option) *ReplayCodec {
	c := &ReplayCodec{
		replayExt:      NopExtension{},
		inputExt:       NopExtension{},
		maxPayloadSize: DefaultMaxPayloadSize,
		log:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode deserializes a replay and all of its inputs from either encoding
func (c *ReplayCodec) Decode(data []byte) (*replay.Replay, error) {
	r, _, err := c.decode(data, true)
	return r, err
}

// DecodeWithFormat is Decode that also reports the detected encoding
func (c *ReplayCodec) DecodeWithFormat(data []byte) (*replay.Replay, Format, error) {
	r, meta, err := c.decode(data, true)
	return r, meta.format, err
}

// DecodeHeader deserializes everything except the inputs. The inputs of the
// payload are neither parsed nor validated.
func (c *ReplayCodec) DecodeHeader(data []byte) (*replay.Replay, error) {
	r, _, err := c.decode(data, false)
	return r, err
}

// Summary describes a payload decoded without its inputs
type Summary struct {
	Replay *replay.Replay
	Format Format
	// InputCount is the length of the raw inputs sequence. Its entries are
	// not validated.
	InputCount int
}

// DecodeSummary decodes the header of a payload and counts its inputs
func (c *ReplayCodec) DecodeSummary(data []byte) (*Summary, error) {
	r, meta, err := c.decode(data, false)
	if err != nil {
		return nil, err
	}
	return &Summary{Replay: r, Format: meta.format, InputCount: meta.inputs}, nil
}

// DetectFormat reports which encoding data uses without validating any
// replay fields
func (c *ReplayCodec) DetectFormat(data []byte) (Format, error) {
	if err := c.checkSize(data); err != nil {
		return FormatBinary, err
	}
	_, format, err := decodeTree(data)
	return format, err
}

type decodeMeta struct {
	format Format
	inputs int
}

func (c *ReplayCodec) decode(data []byte, importInputs bool) (*replay.Replay, decodeMeta, error) {
	var meta decodeMeta
	if err := c.checkSize(data); err != nil {
		return nil, meta, err
	}

	tree, format, err := decodeTree(data)
	if err != nil {
		c.reject("sniff", nil, err)
		return nil, meta, err
	}
	meta.format = format
	log := c.log.WithField("format", format.String())

	for _, section := range []string{keyBot, keyLevel} {
		if _, ok := asTree(tree[section]); !ok {
			err := fmt.Errorf("%w: %s must be an object", ErrMalformedStructure, section)
			c.reject("structure", log, err)
			return nil, meta, err
		}
	}

	r := replay.New("", "")
	if err := decodeFields(replayFields, tree, r, ""); err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidField, err)
		c.reject("fields", log, err)
		return nil, meta, err
	}

	entries, err := inputEntries(tree)

	// Hooks get their own copy so they cannot change what is decoded here.
	c.replayExt.ParseReplay(r, copyTree(tree))

	if !importInputs {
		meta.inputs = len(entries)
		return r, meta, nil
	}
	if err != nil {
		c.reject("structure", log, err)
		return nil, meta, err
	}

	for i, entry := range entries {
		in, err := c.decodeInput(i, entry)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidInput, err)
			c.reject("inputs", log, err)
			return nil, meta, err
		}
		r.Inputs = append(r.Inputs, in)
	}
	meta.inputs = len(r.Inputs)

	log.WithField("inputs", len(r.Inputs)).Debug("decoded replay")
	return r, meta, nil
}

func (c *ReplayCodec) decodeInput(index int, entry any) (replay.Input, error) {
	var in replay.Input

	tree, ok := asTree(entry)
	if !ok {
		return in, fmt.Errorf("inputs[%d]: expected object, got %s", index, kindOf(entry))
	}
	if err := decodeFields(inputFields, tree, &in, fmt.Sprintf("inputs[%d].", index)); err != nil {
		return in, err
	}

	c.inputExt.ParseInput(&in, copyTree(tree))
	return in, nil
}

// inputEntries returns the raw "inputs" sequence. A missing or null sequence
// means no inputs.
func inputEntries(tree Tree) ([]any, error) {
	raw, ok := tree[keyInputs]
	if !ok || raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: inputs must be an array, got %s", ErrMalformedStructure, kindOf(raw))
	}
	return entries, nil
}

func (c *ReplayCodec) checkSize(data []byte) error {
	if c.maxPayloadSize > 0 && len(data) > c.maxPayloadSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(data), c.maxPayloadSize)
	}
	return nil
}

func (c *ReplayCodec) reject(stage string, log logrus.FieldLogger, err error) {
	if log == nil {
		log = c.log
	}
	log.WithField("stage", stage).WithError(err).Debug("rejected replay payload")
}

// Encode serializes a replay. Extension trees are written first and known
// fields over them, so a known key always wins. MessagePack encoding does not
// fail for any replay. JSON has no NaN or Inf, so FormatText fails when a
// float field or an extension value holds one.
func (c *ReplayCodec) Encode(r *replay.Replay, format Format) ([]byte, error) {
	return encodeTree(c.buildTree(r), format)
}

// Convert re-encodes a payload of either encoding into format. Converting a
// MessagePack payload whose floats include NaN or Inf to FormatText fails the
// same way Encode does.
func (c *ReplayCodec) Convert(data []byte, format Format) ([]byte, error) {
	r, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return c.Encode(r, format)
}

func (c *ReplayCodec) buildTree(r *replay.Replay) Tree {
	tree := cloneTree(c.replayExt.SaveReplay(r))
	for _, section := range []string{keyBot, keyLevel} {
		if sub, ok := asTree(tree[section]); ok {
			tree[section] = cloneTree(sub)
		}
	}
	encodeFields(replayFields, r, tree)

	inputs := make([]any, 0, len(r.Inputs))
	for i := range r.Inputs {
		in := &r.Inputs[i]
		entry := cloneTree(c.inputExt.SaveInput(in))
		encodeFields(inputFields, in, entry)
		inputs = append(inputs, entry)
	}
	tree[keyInputs] = inputs

	return tree
}

func cloneTree(src Tree) Tree {
	dst := make(Tree, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// copyTree returns a deep copy of a decoded tree
func copyTree(src Tree) Tree {
	dst := make(Tree, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case Tree:
		return copyTree(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	case []byte:
		return append([]byte(nil), val...)
	default:
		return val
	}
}
