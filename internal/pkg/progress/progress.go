package progress

import (
	"bitbucket.org/airenas/maiebridge/internal/pkg/status"
)

var statusProgressMap = map[status.Status]int32{
	status.Pending:       0,
	status.Preprocessing: 10,
	status.ProcessingASR: 40,
	status.ProcessingLLM: 75,
	status.Complete:      100,
	// no further progress expected, not a success
	status.Failed: 100,
}

//Convert return percentage value of a progress for status value.
//Unknown labels are reported as 0
func Convert(st string) int32 {
	pr, found := statusProgressMap[status.From(st)]
	if found {
		return pr
	}
	return 0
}

//Known returns true if the label has a progress value
func Known(st string) bool {
	_, found := statusProgressMap[status.From(st)]
	return found
}
