package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifactCluster struct {
	Label      string   `json:"label"`
	Members    []string `json:"members"`
	Confidence float64  `json:"confidence"`
}

type artifactPayload struct {
	RunID    string            `json:"run_id"`
	Records  int               `json:"records"`
	Clusters []artifactCluster `json:"clusters"`
	Columns  map[string]string `json:"columns"`
}

func samplePayload() artifactPayload {
	clusters := make([]artifactCluster, 0, 64)
	for i := 0; i < 64; i++ {
		clusters = append(clusters, artifactCluster{
			Label:      "cluster_cust_0000001",
			Members:    []string{"cust_0000001", "cust_0000002", "cust_0000003"},
			Confidence: 0.925,
		})
	}
	return artifactPayload{
		RunID:    "0f9d3c7e-4a31-4a8e-9d7c-131415161718",
		Records:  1000,
		Clusters: clusters,
		Columns: map[string]string{
			"name":  "full_name",
			"email": "email",
		},
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{name: "json", want: "json", ok: true},
		{name: "go-json", want: "go-json", ok: true},
		{name: "go-json+zstd", want: "go-json+zstd", ok: true},
		{name: "json+zstd", want: "json+zstd", ok: true},
		{name: "go-json+lz4", want: "go-json+lz4", ok: true},
		{name: "msgpack", ok: false},
		{name: "go-json+snappy", ok: false},
		{name: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ByName(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, c.Name())
			}
		})
	}
}

func TestCompressedCodecs_RoundTrip(t *testing.T) {
	payload := samplePayload()
	plainSize := len(MustMarshal(GoJSON{}, payload))

	codecs := []Codec{
		Zstd{Base: GoJSON{}},
		Zstd{Base: JSON{}},
		LZ4{Base: GoJSON{}},
		LZ4{}, // nil base falls back to Default
	}

	for _, c := range codecs {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(payload)
			require.NoError(t, err)

			// The sample is highly repetitive; both algorithms must beat it.
			assert.Less(t, len(data), plainSize)

			var got artifactPayload
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressedCodecs_SmallPayloadStoredRaw(t *testing.T) {
	// A short random-looking string gains nothing from compression; the
	// frame keeps it raw and the round trip still works.
	payload := map[string]string{"k": "zq1x"}

	for _, c := range []Codec{Zstd{Base: JSON{}}, LZ4{Base: JSON{}}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := c.Marshal(payload)
			require.NoError(t, err)

			var got map[string]string
			require.NoError(t, c.Unmarshal(data, &got))
			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressedCodecs_CorruptInput(t *testing.T) {
	for _, c := range []Codec{Zstd{Base: JSON{}}, LZ4{Base: JSON{}}} {
		t.Run(c.Name(), func(t *testing.T) {
			var got map[string]string
			assert.Error(t, c.Unmarshal([]byte{0x01, 0x02}, &got))
		})
	}
}

func TestCompressedCodecs_Names(t *testing.T) {
	assert.Equal(t, "go-json+zstd", Zstd{Base: GoJSON{}}.Name())
	assert.Equal(t, "json+lz4", LZ4{Base: JSON{}}.Name())
	// Nil base resolves through Default.
	assert.True(t, strings.HasSuffix(Zstd{}.Name(), "+zstd"))
}
