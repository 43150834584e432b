package dbrunner

import (
	"encoding/json"
	"sync"

	"google.golang.org/grpc/encoding"
)

// grpcJSONCodecName is the content subtype used for dbrunner transport.
const grpcJSONCodecName = "json"

var registerCodecOnce sync.Once

type grpcJSONCodec struct{}

func (c *grpcJSONCodec) Name() string {
	return grpcJSONCodecName
}

func (c *grpcJSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (c *grpcJSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// EnsureGRPCJSONCodec registers the JSON codec used for dbrunner gRPC
// transport. Safe to call multiple times.
func EnsureGRPCJSONCodec() {
	registerCodecOnce.Do(func() {
		encoding.RegisterCodec(&grpcJSONCodec{})
	})
}
