package messages

const (
	// TaskSubmitted queue, gateway puts a task id after MAIE accepted it
	TaskSubmitted string = "TaskSubmitted"
)
