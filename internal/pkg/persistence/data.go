package persistence

import "time"

//Task kinds
const (
	KindAudio = "audio"
	KindText  = "text"
)

//Task is a MAIE task bookkeeping record
type Task struct {
	ID         string    `bson:"ID" json:"id"`
	UserID     string    `bson:"userID" json:"userId"`
	Kind       string    `bson:"kind" json:"kind"`
	FileName   string    `bson:"fileName,omitempty" json:"fileName,omitempty"`
	TemplateID string    `bson:"templateID,omitempty" json:"templateId,omitempty"`
	Status     string    `bson:"status" json:"status"`
	Stage      string    `bson:"stage,omitempty" json:"stage,omitempty"`
	Progress   int32     `bson:"progress" json:"progress"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	ErrorCode  string    `bson:"errorCode,omitempty" json:"errorCode,omitempty"`
	Done       bool      `bson:"done" json:"done"`
	Created    time.Time `bson:"created" json:"created"`
	Updated    time.Time `bson:"updated" json:"updated"`
}
