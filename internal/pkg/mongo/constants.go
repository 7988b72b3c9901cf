package mongo

const (
	store     = "maiebridge"
	taskTable = "tasks"
)

var indexData = []IndexData{
	newIndexData(taskTable, "ID", true),
	newIndexData(taskTable, "done", false),
	newIndexData(taskTable, "userID", false)}
