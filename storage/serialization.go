// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/ragcore/core"
)

var (
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
	vectorMUS   = ord.NewSliceSer[float32](varint.Float32)

	// EmbeddedChunkMUS serializes core.EmbeddedChunk values in MUS format.
	EmbeddedChunkMUS = embeddedChunkMUS{}

	// LoaderRecordMUS serializes core.LoaderRecord values in MUS format.
	LoaderRecordMUS = loaderRecordMUS{}
)

type embeddedChunkMUS struct{}

func (s embeddedChunkMUS) Marshal(v core.EmbeddedChunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.PageContent, bs)
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	return
}

func (s embeddedChunkMUS) Unmarshal(bs []byte) (v core.EmbeddedChunk, n int, err error) {
	v.PageContent, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s embeddedChunkMUS) Size(v core.EmbeddedChunk) (size int) {
	size = ord.String.Size(v.PageContent)
	size += metadataMUS.Size(v.Metadata)
	return size + vectorMUS.Size(v.Vector)
}

type loaderRecordMUS struct{}

func (s loaderRecordMUS) Marshal(v core.LoaderRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.LoaderID, bs)
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	return
}

func (s loaderRecordMUS) Unmarshal(bs []byte) (v core.LoaderRecord, n int, err error) {
	v.LoaderID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (s loaderRecordMUS) Size(v core.LoaderRecord) (size int) {
	size = ord.String.Size(v.LoaderID)
	return size + varint.Int.Size(v.ChunkCount)
}

// MarshalEmbeddedChunk serializes an EmbeddedChunk to bytes.
func MarshalEmbeddedChunk(chunk *core.EmbeddedChunk) []byte {
	buf := make([]byte, EmbeddedChunkMUS.Size(*chunk))
	EmbeddedChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalEmbeddedChunk deserializes an EmbeddedChunk from bytes.
func UnmarshalEmbeddedChunk(data []byte) (*core.EmbeddedChunk, error) {
	chunk, _, err := EmbeddedChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalLoaderRecord serializes a LoaderRecord to bytes.
func MarshalLoaderRecord(record *core.LoaderRecord) []byte {
	buf := make([]byte, LoaderRecordMUS.Size(*record))
	LoaderRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalLoaderRecord deserializes a LoaderRecord from bytes.
func UnmarshalLoaderRecord(data []byte) (*core.LoaderRecord, error) {
	record, _, err := LoaderRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
