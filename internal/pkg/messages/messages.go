package messages

//QueueMessage message going through broker
type QueueMessage struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`
}

//NewQueueMessage creates the message with task id and owner
func NewQueueMessage(id, userID string) *QueueMessage {
	return &QueueMessage{ID: id, UserID: userID}
}
