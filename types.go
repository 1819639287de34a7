package main

import "time"

// EncodeRequest asks for text to be encoded into a field. Field names a
// known InSim field ("MST.Msg"); otherwise Size gives the byte count.
type EncodeRequest struct {
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
	Size  int    `json:"size,omitempty"`
}

// EncodeResponse carries the whole field, terminator padding included.
type EncodeResponse struct {
	Field     string `json:"field,omitempty"`
	Size      int    `json:"size"`
	Data      []byte `json:"data"`
	Hex       string `json:"hex"`
	Written   int    `json:"written"`
	Truncated bool   `json:"truncated"`
	Fallbacks int    `json:"fallbacks"`
	Unmapped  int    `json:"unmapped"`
	Page      string `json:"page"`
}

// DecodeRequest holds raw field bytes, either base64 (Data) or hex.
// Offset and Length select a window; Length 0 means the rest of the payload.
type DecodeRequest struct {
	Data   []byte `json:"data,omitempty"`
	Hex    string `json:"hex,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Length int    `json:"length,omitempty"`
}

type DecodeResponse struct {
	Text string `json:"text"`
}

type SplitRequest struct {
	Text  string `json:"text"`
	Field string `json:"field,omitempty"`
	Size  int    `json:"size,omitempty"`
}

type SplitResponse struct {
	Field    string   `json:"field,omitempty"`
	Size     int      `json:"size"`
	Segments []string `json:"segments"`
}

type CodePageInfo struct {
	Selector string `json:"selector"`
	Name     string `json:"name"`
	Width    string `json:"width"`
	Default  bool   `json:"default"`
}

type FieldInfo struct {
	Key    string `json:"key"`
	Packet string `json:"packet"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

var TextJobOp = struct {
	Encode string
	Decode string
	Split  string
}{
	Encode: "encode",
	Decode: "decode",
	Split:  "split",
}

// TextJob is a conversion request taken off the jobs queue.
type TextJob struct {
	ID    string `json:"id"`
	Op    string `json:"op"`
	Field string `json:"field,omitempty"`
	Size  int    `json:"size,omitempty"`
	Text  string `json:"text,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

// TextJobResult is published to the results queue for every accepted job.
type TextJobResult struct {
	ID          string    `json:"id"`
	Op          string    `json:"op"`
	Field       string    `json:"field,omitempty"`
	Size        int       `json:"size,omitempty"`
	Text        string    `json:"text,omitempty"`
	Data        []byte    `json:"data,omitempty"`
	Written     int       `json:"written,omitempty"`
	Truncated   bool      `json:"truncated,omitempty"`
	Segments    []string  `json:"segments,omitempty"`
	Error       string    `json:"error,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}
