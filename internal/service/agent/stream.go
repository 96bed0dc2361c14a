package agent

import (
	"encoding/json"
	"io"
	"net/http"
)

// Event 流式输出事件（NDJSON 线格式）
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Stream NDJSON 事件流
// 每个轮次对应一条独立的流，消费一次即废；写入后立即 flush
type Stream struct {
	w       io.Writer
	flusher http.Flusher
}

// NewStream 创建事件流
// w 同时实现 http.Flusher 时每条事件后刷新，保证增量可见
func NewStream(w io.Writer) *Stream {
	s := &Stream{w: w}
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

// Content 推送一条增量内容事件
func (s *Stream) Content(content string) error {
	return s.write(Event{Type: "stream", Content: content})
}

// Complete 推送终态完成事件，每条流恰好一次
func (s *Stream) Complete() error {
	return s.write(Event{Type: "status", Status: "complete"})
}

// Error 推送错误事件
func (s *Stream) Error(message string) error {
	return s.write(Event{Type: "error", Message: message})
}

func (s *Stream) write(ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if _, err := s.w.Write(append(raw, '\n')); err != nil {
		return err
	}

	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
