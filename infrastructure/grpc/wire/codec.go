// Package wire declares the chatsync.v1 gRPC services. Payloads encode
// themselves in protobuf wire format through the codec package and travel
// under the codec registered as CodecName.
package wire

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const CodecName = "protowire"

// Message is implemented by every request and response of the services.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire([]byte) error
}

type protowireCodec struct{}

func (protowireCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (protowireCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (protowireCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(protowireCodec{})
}

// CallCodec selects the protowire codec on a client connection.
func CallCodec() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName))
}
