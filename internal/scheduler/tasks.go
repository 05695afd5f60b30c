package scheduler

import (
	"encoding/json"

	"treeleads/internal/notification"

	"github.com/hibiken/asynq"
)

const TaskLeadNotification = "leads.notification"

const TaskLeadEmailBlast = "leads.email_blast"

type EmailBlastPayload struct {
	LeadID string `json:"leadId"`
}

func NewLeadNotificationTask(job notification.Job) (*asynq.Task, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadNotification, data), nil
}

func ParseLeadNotificationPayload(task *asynq.Task) (notification.Job, error) {
	var job notification.Job
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return notification.Job{}, err
	}
	return job, nil
}

func NewLeadEmailBlastTask(payload EmailBlastPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadEmailBlast, data), nil
}

func ParseLeadEmailBlastPayload(task *asynq.Task) (EmailBlastPayload, error) {
	var payload EmailBlastPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EmailBlastPayload{}, err
	}
	return payload, nil
}
