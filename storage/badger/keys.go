package badger

// Key prefixes for different data types
const (
	chunkPrefix        = "vecchu"
	loaderRecordPrefix = "ldrrec"
	indexMetaKey       = "vecmeta:dims"
)

// makeChunkKey generates a key for an embedded chunk by its stamped id.
// Chunk ids have the form "<loaderID>_<index>", so all chunks of one loader
// share a common key prefix.
func makeChunkKey(chunkID string) []byte {
	return []byte(chunkPrefix + ":" + chunkID)
}

// makeChunkScanPrefix generates the prefix covering all stored chunks.
func makeChunkScanPrefix() []byte {
	return []byte(chunkPrefix + ":")
}

// makeLoaderChunkPrefix generates the prefix covering every chunk the given
// loader produced. The trailing underscore keeps loader "ab" from matching
// chunks of loader "abc".
func makeLoaderChunkPrefix(loaderID string) []byte {
	return []byte(chunkPrefix + ":" + loaderID + "_")
}

// makeLoaderRecordKey generates a key for a loader's cache record.
func makeLoaderRecordKey(loaderID string) []byte {
	return []byte(loaderRecordPrefix + ":" + loaderID)
}
