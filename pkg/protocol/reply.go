package protocol

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformedReply is returned when a handshake reply is neither null nor a
// JSON object.
var ErrMalformedReply = errors.New("malformed handshake reply")

// Reply is the server's answer to a registration or authorization request.
type Reply struct {
	Nickname    string `json:"nickname"`
	AccountHash string `json:"account_hash"`
}

// ParseReply decodes the first line of a handshake response.
// A JSON null yields (nil, nil): the server did not recognise the request.
func ParseReply(line string) (*Reply, error) {
	line = strings.TrimSpace(line)
	if first, _, found := strings.Cut(line, "\n"); found {
		line = strings.TrimSpace(first)
	}
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedReply)
	}

	value := &structpb.Value{}
	if err := protojson.Unmarshal([]byte(line), value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	switch kind := value.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StructValue:
		fields := kind.StructValue.GetFields()
		return &Reply{
			Nickname:    fields["nickname"].GetStringValue(),
			AccountHash: fields["account_hash"].GetStringValue(),
		}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected value %q", ErrMalformedReply, line)
	}
}

// EncodeReply renders reply as a handshake line. A nil reply encodes as null.
func EncodeReply(reply *Reply) ([]byte, error) {
	value := structpb.NewNullValue()
	if reply != nil {
		value = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"nickname":     structpb.NewStringValue(reply.Nickname),
				"account_hash": structpb.NewStringValue(reply.AccountHash),
			},
		})
	}
	data, err := protojson.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return append(data, LineTerminator...), nil
}
