package ledgerv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName gRPC content-subtype，對應 application/grpc+json
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec 以 JSON 編碼 gRPC 訊息
// proto.Message (例如 health check) 走 protojson，其他型別走 encoding/json
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return CodecName
}
