package storage

import (
	"testing"

	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedChunkRoundTrip(t *testing.T) {
	chunk := &core.EmbeddedChunk{
		Fragment: core.Fragment{
			PageContent: "the quick brown fox",
			Metadata: map[string]string{
				core.MetadataKeyID:       "docs_0",
				core.MetadataKeyLoaderID: "docs",
				core.MetadataKeySource:   "fox.txt",
			},
		},
		Vector: []float32{0.25, -1.5, 3},
	}

	data := MarshalEmbeddedChunk(chunk)
	got, err := UnmarshalEmbeddedChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestLoaderRecordRoundTrip(t *testing.T) {
	record := &core.LoaderRecord{LoaderID: "videos", ChunkCount: 17}

	data := MarshalLoaderRecord(record)
	got, err := UnmarshalLoaderRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestUnmarshalTruncatedData(t *testing.T) {
	chunk := &core.EmbeddedChunk{
		Fragment: core.Fragment{PageContent: "text"},
		Vector:   []float32{1, 2, 3},
	}

	data := MarshalEmbeddedChunk(chunk)
	_, err := UnmarshalEmbeddedChunk(data[:2])
	require.Error(t, err)
}
