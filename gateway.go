package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"

	"insim-textgw/insim/coding"
	"insim-textgw/insim/pdu"
)

//goland:noinspection ALL
var (
	ErrAmbiguousPayload = errors.New("gateway: send either data or hex, not both")
	ErrInvalidPayload   = errors.New("gateway: invalid payload")
	ErrInvalidWindow    = errors.New("gateway: offset/length outside payload")
	ErrUnknownOp        = errors.New("gateway: unknown job op")
)

// ConversionStats counts what the gateway has done since startup.
type ConversionStats struct {
	Encodes     atomic.Uint64
	Decodes     atomic.Uint64
	Splits      atomic.Uint64
	Fallbacks   atomic.Uint64
	Unmapped    atomic.Uint64
	Truncations atomic.Uint64

	EncodeErrors atomic.Uint64
	DecodeErrors atomic.Uint64
	SplitErrors  atomic.Uint64
}

// Gateway exposes the InSim text codec to HTTP and AMQP clients.
type Gateway struct {
	Codec      *coding.Codec
	Stats      *ConversionStats
	AMPQClient *AMPQClient
	Config     Config
}

// NewGateway creates a gateway over the default code page registry.
func NewGateway(cfg Config) *Gateway {
	return &Gateway{
		Codec:  coding.Default,
		Stats:  &ConversionStats{},
		Config: cfg,
	}
}

// EncodeText encodes req.Text into a zeroed field.
func (gateway *Gateway) EncodeText(req EncodeRequest) (EncodeResponse, error) {
	size, err := pdu.ResolveSize(req.Field, req.Size)
	if err != nil {
		gateway.Stats.EncodeErrors.Add(1)
		return EncodeResponse{}, err
	}

	field := make([]byte, size)
	st := gateway.Codec.EncodeStats(req.Text, field, 0, size)

	gateway.Stats.Encodes.Add(1)
	gateway.Stats.Fallbacks.Add(uint64(st.Fallbacks))
	gateway.Stats.Unmapped.Add(uint64(st.Unmapped))
	if st.Truncated {
		gateway.Stats.Truncations.Add(1)
	}

	return EncodeResponse{
		Field:     req.Field,
		Size:      size,
		Data:      field,
		Hex:       hex.EncodeToString(field),
		Written:   st.Written,
		Truncated: st.Truncated,
		Fallbacks: st.Fallbacks,
		Unmapped:  st.Unmapped,
		Page:      string(st.Page),
	}, nil
}

// DecodeText decodes a raw field payload.
func (gateway *Gateway) DecodeText(req DecodeRequest) (DecodeResponse, error) {
	data, err := req.payload()
	if err != nil {
		gateway.Stats.DecodeErrors.Add(1)
		return DecodeResponse{}, err
	}

	length := req.Length
	if length == 0 {
		length = len(data) - req.Offset
	}
	if req.Offset < 0 || length < 0 || req.Offset+length > len(data) {
		gateway.Stats.DecodeErrors.Add(1)
		return DecodeResponse{}, fmt.Errorf("%w: offset %d length %d payload %d",
			ErrInvalidWindow, req.Offset, req.Length, len(data))
	}

	gateway.Stats.Decodes.Add(1)
	return DecodeResponse{Text: gateway.Codec.Decode(data, req.Offset, length)}, nil
}

// SplitText breaks a message into segments that each fit the field.
func (gateway *Gateway) SplitText(req SplitRequest) (SplitResponse, error) {
	size, err := pdu.ResolveSize(req.Field, req.Size)
	if err != nil {
		gateway.Stats.SplitErrors.Add(1)
		return SplitResponse{}, err
	}

	segments, err := gateway.Codec.Split(req.Text, size)
	if err != nil {
		gateway.Stats.SplitErrors.Add(1)
		return SplitResponse{}, err
	}

	gateway.Stats.Splits.Add(1)
	if segments == nil {
		segments = []string{}
	}
	return SplitResponse{Field: req.Field, Size: size, Segments: segments}, nil
}

// CodePages lists the registry in fallback order.
func (gateway *Gateway) CodePages() []CodePageInfo {
	reg := gateway.Codec.Registry()
	def := reg.Default()
	pages := reg.Pages()
	out := make([]CodePageInfo, 0, len(pages))
	for _, p := range pages {
		out = append(out, CodePageInfo{
			Selector: string(p.Selector()),
			Name:     p.Name(),
			Width:    p.Width().String(),
			Default:  p == def,
		})
	}
	return out
}

// Fields lists the known packet text fields, sorted by key.
func (gateway *Gateway) Fields() []FieldInfo {
	keys := pdu.Keys()
	out := make([]FieldInfo, 0, len(keys))
	for _, key := range keys {
		f, err := pdu.LookupField(key)
		if err != nil {
			continue
		}
		out = append(out, FieldInfo{Key: key, Packet: f.Packet, Name: f.Name, Size: f.Size})
	}
	return out
}

func (req DecodeRequest) payload() ([]byte, error) {
	if len(req.Data) > 0 && req.Hex != "" {
		return nil, ErrAmbiguousPayload
	}
	if req.Hex == "" {
		return req.Data, nil
	}
	data, err := decodeHexPayload(req.Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return data, nil
}
