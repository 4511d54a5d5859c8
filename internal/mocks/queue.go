package mocks

// MockMessageQueue is a mock implementation of ports.MessageQueue.
type MockMessageQueue struct {
	PublishedMessages map[string][]interface{}
	Subscribers       map[string][]func([]byte)
	PublishFunc       func(topic string, message interface{}) error
	SubscribeFunc     func(topic string, handler func([]byte)) error
	CloseFunc         func() error
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{
		PublishedMessages: make(map[string][]interface{}),
		Subscribers:       make(map[string][]func([]byte)),
	}
}

func (m *MockMessageQueue) Publish(topic string, message interface{}) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(topic, message)
	}
	m.PublishedMessages[topic] = append(m.PublishedMessages[topic], message)
	return nil
}

func (m *MockMessageQueue) Subscribe(topic string, handler func([]byte)) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(topic, handler)
	}
	m.Subscribers[topic] = append(m.Subscribers[topic], handler)
	return nil
}

func (m *MockMessageQueue) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// GetPublishedMessages returns all messages published to a topic.
func (m *MockMessageQueue) GetPublishedMessages(topic string) []interface{} {
	return m.PublishedMessages[topic]
}

// ClearMessages clears all published messages.
func (m *MockMessageQueue) ClearMessages() {
	m.PublishedMessages = make(map[string][]interface{})
}
