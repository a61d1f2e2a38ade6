// Package checkv1 CheckService 的消息定义。
package checkv1

type ReadyCheckReq struct{}

type ReadyCheckReply struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details,omitempty"`
}
