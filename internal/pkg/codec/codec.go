package codec

import (
	"github.com/bytedance/sonic"
)

// 与 encoding/json 行为一致：HTML 转义、map 键排序
var api = sonic.ConfigStd

// Name Connect 协议中 application/json 对应的编解码器名称
const Name = "json"

// JSON 基于 sonic 的 Connect 编解码器，用于非 protobuf 的消息类型
type JSON struct{}

func (JSON) Name() string {
	return Name
}

func (JSON) Marshal(v any) ([]byte, error) {
	return Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return Unmarshal(data, v)
}

// Marshal 编码为 JSON
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal 解码 JSON，空输入视为空消息
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return api.Unmarshal(data, v)
}
