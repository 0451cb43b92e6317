package proforma

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"shrimpquote_backend/internal/pricing"
)

const TaskRenderProforma = "proforma.render"

// QueueProformas is the asynq queue proforma jobs run on.
const QueueProformas = "proformas"

// RenderPayload carries everything the worker needs to produce and
// deliver one proforma document.
type RenderPayload struct {
	JobID       string          `json:"jobId"`
	Sender      string          `json:"sender"`
	Language    string          `json:"language"`
	ClientName  string          `json:"clientName,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Quotes      []pricing.Quote `json:"quotes"`
}

func NewRenderTask(payload RenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRenderProforma, data), nil
}

func ParseRenderPayload(task *asynq.Task) (RenderPayload, error) {
	var payload RenderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RenderPayload{}, err
	}
	return payload, nil
}
