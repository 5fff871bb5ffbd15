package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/ragcore/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// AnswerFunc is called by Answer if set.
	// If nil, uses default echo behavior.
	AnswerFunc func(ctx context.Context, req ai.AnswerRequest) (string, error)

	// InitErr is returned by Init when set.
	InitErr error

	initCount   int
	answerCount int

	// LastRequest records the most recent Answer request for assertions.
	LastRequest ai.AnswerRequest
}

// NewMockChatModel creates a mock chat model with default echo behavior.
// Note: Returns concrete type to allow test assertions and behavior injection.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Init records the call and returns InitErr.
func (m *MockChatModel) Init(ctx context.Context) error {
	m.initCount++
	return m.InitErr
}

// Answer echoes the query and reports how many context fragments it received.
func (m *MockChatModel) Answer(ctx context.Context, req ai.AnswerRequest) (string, error) {
	m.answerCount++
	m.LastRequest = req

	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, req)
	}

	return fmt.Sprintf("answer to %q from %d fragments", req.Query, len(req.Context)), nil
}

// InitCount returns the number of times Init was called.
func (m *MockChatModel) InitCount() int {
	return m.initCount
}

// AnswerCount returns the number of times Answer was called.
func (m *MockChatModel) AnswerCount() int {
	return m.answerCount
}
