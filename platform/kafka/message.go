package kafka

import "time"

type Message struct {
	Headers        map[string][]byte
	Timestamp      time.Time
	BlockTimestamp time.Time

	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64
}

func (m Message) Header(name string) string {
	return string(m.Headers[name])
}

func (m Message) EventType() string {
	return m.Header(HeaderEventType)
}
