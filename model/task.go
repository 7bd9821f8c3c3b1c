package model

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task 队列中传递的任务信封
//
// Payload 是任意 JSON 数据，UID/Unique/UniqueKey 是固定字段，
// 序列化前后保持不变。
type Task struct {
	UID       string          `json:"uid"`                  // 任务唯一ID，同时作为结果通道的标识
	Unique    bool            `json:"unique"`               // 是否参与去重
	UniqueKey string          `json:"unique_key,omitempty"` // 调用方指定的去重键，为空时使用 Payload 计算
	Payload   json.RawMessage `json:"payload"`              // 任务数据
	CreatedAt time.Time       `json:"created_at"`
}

// NewTask 创建新任务，payload 会被序列化为 JSON
func NewTask(payload any) (*Task, error) {
	t := &Task{
		UID:       NewUID(),
		CreatedAt: time.Now(),
	}
	if err := t.SetPayload(payload); err != nil {
		return nil, err
	}
	return t, nil
}

// NewUniqueTask 创建参与去重的任务
func NewUniqueTask(payload any) (*Task, error) {
	t, err := NewTask(payload)
	if err != nil {
		return nil, err
	}
	t.Unique = true
	return t, nil
}

// NewUID 生成任务ID
func NewUID() string {
	return uuid.New().String()
}

// SetPayload 替换任务数据
func (t *Task) SetPayload(payload any) error {
	if raw, ok := payload.(json.RawMessage); ok {
		t.Payload = raw
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	t.Payload = data
	return nil
}

// Hash 计算去重哈希（SHA-512 十六进制）
//
// 设置了 UniqueKey 时只对它求哈希；否则对 Payload 的规范化 JSON 求哈希，
// 对象的键顺序不影响结果。UID 不参与计算。
func (t *Task) Hash() string {
	if t.UniqueKey != "" {
		return digest([]byte(t.UniqueKey))
	}
	canon, err := canonicalJSON(t.Payload)
	if err != nil {
		// 无法解析的数据按原始字节计算
		return digest(t.Payload)
	}
	return digest(canon)
}

// Encode 序列化任务，用于写入队列
func (t *Task) Encode() ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return data, nil
}

// DecodeTask 从队列数据还原任务
func DecodeTask(data []byte) (*Task, error) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// DecodePayload 将任务数据解析为具体类型
func DecodePayload[T any](t *Task) (T, error) {
	var v T
	if len(t.Payload) == 0 {
		return v, fmt.Errorf("task %s has no payload", t.UID)
	}
	if err := json.Unmarshal(t.Payload, &v); err != nil {
		return v, fmt.Errorf("failed to decode payload of task %s: %w", t.UID, err)
	}
	return v, nil
}

// canonicalJSON 解析后重新编码，encoding/json 会对 map 的键排序
func canonicalJSON(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func digest(b []byte) string {
	sum := sha512.Sum512(b)
	return hex.EncodeToString(sum[:])
}
