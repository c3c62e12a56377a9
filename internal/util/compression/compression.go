// Package compression holds the codecs used for stored gist content.
package compression

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	_ Compressor = ZstdCompressor{}
	_ Compressor = GzipCompressor{}
)

// ContentEncoding is the HTTP Content-Encoding token for the codec.
func ContentEncoding(c Compressor) string {
	switch c.(type) {
	case GzipCompressor:
		return "gzip"
	case ZstdCompressor:
		return "zstd"
	}
	return ""
}
