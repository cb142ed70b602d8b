package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - Run summaries and cluster sets are plain structs/maps/slices; JSON covers them.
// - If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
//   pass it to the report writer.
//
// Performance note:
//   - If you need the most portable/lowest-dependency option, use JSON.
//   - The default codec may change over time; artifact keys always record the
//     codec name so it can be resolved on read.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-written artifacts. Existing artifacts are
// self-describing (the key records the codec name) and are read by selecting
// the appropriate codec by name.
var Default Codec = GoJSON{}
