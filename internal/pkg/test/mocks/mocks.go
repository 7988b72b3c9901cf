package mocks

import (
	"context"
	"io"

	"bitbucket.org/airenas/maiebridge/internal/pkg/maie/api"
	"bitbucket.org/airenas/maiebridge/internal/pkg/messages"
	"bitbucket.org/airenas/maiebridge/internal/pkg/notify"
	"bitbucket.org/airenas/maiebridge/internal/pkg/persistence"
	"bitbucket.org/airenas/maiebridge/internal/pkg/template"
	"github.com/stretchr/testify/mock"
)

//MAIE mocks MAIE client
type MAIE struct{ mock.Mock }

//Submit mock
func (m *MAIE) Submit(ctx context.Context, audio io.Reader, fileName, templateID, features string) (*api.SubmitResponse, error) {
	// consume like the real client does
	b, _ := io.ReadAll(audio)
	args := m.Called(string(b), fileName, templateID, features)
	return To[*api.SubmitResponse](args.Get(0)), args.Error(1)
}

//SubmitText mock
func (m *MAIE) SubmitText(ctx context.Context, text, templateID string) (*api.SubmitResponse, error) {
	args := m.Called(text, templateID)
	return To[*api.SubmitResponse](args.Get(0)), args.Error(1)
}

//GetStatus mock
func (m *MAIE) GetStatus(ctx context.Context, ID string) (*api.TaskStatus, error) {
	args := m.Called(ID)
	return To[*api.TaskStatus](args.Get(0)), args.Error(1)
}

//TaskStore mocks task bookkeeping
type TaskStore struct{ mock.Mock }

//Save mock
func (m *TaskStore) Save(ctx context.Context, t *persistence.Task) error {
	return m.Called(t).Error(0)
}

//Get mock
func (m *TaskStore) Get(ctx context.Context, id string) (*persistence.Task, error) {
	args := m.Called(id)
	return To[*persistence.Task](args.Get(0)), args.Error(1)
}

//ListActive mock
func (m *TaskStore) ListActive(ctx context.Context, limit int64) ([]*persistence.Task, error) {
	args := m.Called(limit)
	return To[[]*persistence.Task](args.Get(0)), args.Error(1)
}

//UpdateStatus mock
func (m *TaskStore) UpdateStatus(ctx context.Context, t *persistence.Task) error {
	return m.Called(t).Error(0)
}

//Sender mocks broker sender
type Sender struct{ mock.Mock }

//Send mock
func (m *Sender) Send(msg *messages.QueueMessage, queue string) error {
	return m.Called(msg, queue).Error(0)
}

//Templates mocks template store
type Templates struct{ mock.Mock }

//Create mock
func (m *Templates) Create(ctx context.Context, t *template.Template) (*template.Template, error) {
	args := m.Called(t)
	return To[*template.Template](args.Get(0)), args.Error(1)
}

//Get mock
func (m *Templates) Get(ctx context.Context, id string) (*template.Template, error) {
	args := m.Called(id)
	return To[*template.Template](args.Get(0)), args.Error(1)
}

//List mock
func (m *Templates) List(ctx context.Context, userID string) ([]*template.Template, error) {
	args := m.Called(userID)
	return To[[]*template.Template](args.Get(0)), args.Error(1)
}

//Update mock
func (m *Templates) Update(ctx context.Context, id, name, content string) (*template.Template, error) {
	args := m.Called(id, name, content)
	return To[*template.Template](args.Get(0)), args.Error(1)
}

//Delete mock
func (m *Templates) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

//Notifier mocks notification bus
type Notifier struct{ mock.Mock }

//EmitToUser mock
func (m *Notifier) EmitToUser(userID string, n notify.Notification) {
	m.Called(userID, n)
}

//Kick mock
func (m *Notifier) Kick(userID, message string) {
	m.Called(userID, message)
}

//Acknowledger mocks amqp acknowledger
type Acknowledger struct{ mock.Mock }

//Ack mock
func (m *Acknowledger) Ack(tag uint64, multiple bool) error {
	return m.Called(tag, multiple).Error(0)
}

//Nack mock
func (m *Acknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	return m.Called(tag, multiple, requeue).Error(0)
}

//Reject mock
func (m *Acknowledger) Reject(tag uint64, requeue bool) error {
	return m.Called(tag, requeue).Error(0)
}

//To converts mock value to type, nil for nil
func To[T any](v interface{}) T {
	var res T
	if v == nil {
		return res
	}
	return v.(T)
}
