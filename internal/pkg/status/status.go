package status

//Status represents MAIE task status
type Status int

const (
	//Pending value
	Pending Status = iota + 1
	//Preprocessing value
	Preprocessing
	//ProcessingASR value
	ProcessingASR
	//ProcessingLLM value
	ProcessingLLM
	//Complete value
	Complete
	//Failed value
	Failed
)

var (
	statusName = map[Status]string{Pending: "PENDING", Preprocessing: "PREPROCESSING",
		ProcessingASR: "PROCESSING_ASR", ProcessingLLM: "PROCESSING_LLM",
		Complete: "COMPLETE", Failed: "FAILED"}
	nameStatus = map[string]Status{"PENDING": Pending, "PREPROCESSING": Preprocessing,
		"PROCESSING_ASR": ProcessingASR, "PROCESSING_LLM": ProcessingLLM,
		"COMPLETE": Complete, "FAILED": Failed}
)

//Name returns MAIE label for status, "" if unknown
func Name(st Status) string {
	return statusName[st]
}

//From parses MAIE label, returns 0 for unknown label
func From(st string) Status {
	return nameStatus[st]
}

//All returns all known statuses in processing order
func All() []Status {
	return []Status{Pending, Preprocessing, ProcessingASR, ProcessingLLM, Complete, Failed}
}

//IsFinal is true for statuses after which MAIE does no more work
func IsFinal(st string) bool {
	s := From(st)
	return s == Complete || s == Failed
}
