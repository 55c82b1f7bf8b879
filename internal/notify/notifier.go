package notify

import (
	"encoding/json"
	"time"

	"github.com/contabhub/onety-sub007/internal/model"
	"github.com/contabhub/onety-sub007/internal/websocket"
	"github.com/sirupsen/logrus"
)

// Notifier 通知接收方接口
// 全部为尽力而为:失败由调度方记录日志,永远不会回滚或阻塞主操作
type Notifier interface {
	TaskCreated(task *model.TaskModel) error
	SubtasksCreated(parent *model.TaskModel, subtasks []*model.TaskModel) error
	TaskCompleted(task *model.TaskModel, actor string) error
}

// LogNotifier 基于结构化日志的通知实现
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// TaskCreated 记录任务创建通知
func (n *LogNotifier) TaskCreated(task *model.TaskModel) error {
	n.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"owner_id": task.OwnerID,
		"subject":  task.Subject,
	}).Info("task created notification")
	return nil
}

// SubtasksCreated 记录子任务创建通知
func (n *LogNotifier) SubtasksCreated(parent *model.TaskModel, subtasks []*model.TaskModel) error {
	n.logger.WithFields(logrus.Fields{
		"parent_task_id": parent.ID,
		"subtask_count":  len(subtasks),
	}).Info("subtasks created notification")
	return nil
}

// TaskCompleted 记录任务完成通知
func (n *LogNotifier) TaskCompleted(task *model.TaskModel, actor string) error {
	n.logger.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"owner_id": task.OwnerID,
		"actor":    actor,
	}).Info("task completed notification")
	return nil
}

// taskEvent WebSocket 推送的事件负载
type taskEvent struct {
	Type      string    `json:"type"`
	TaskID    string    `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HubNotifier 基于 WebSocket Hub 的通知实现
// 事件推送给任务负责人的在线连接
type HubNotifier struct {
	hub *websocket.Hub
}

// NewHubNotifier 创建 WebSocket 通知器
func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) send(userID string, ev taskEvent) error {
	ev.Timestamp = time.Now()
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	n.hub.BroadcastToUser(userID, payload)
	return nil
}

// TaskCreated 推送任务创建事件
func (n *HubNotifier) TaskCreated(task *model.TaskModel) error {
	return n.send(task.OwnerID, taskEvent{
		Type:    "task.created",
		TaskID:  task.ID,
		OwnerID: task.OwnerID,
		Subject: task.Subject,
	})
}

// SubtasksCreated 逐个推送子任务创建事件
func (n *HubNotifier) SubtasksCreated(parent *model.TaskModel, subtasks []*model.TaskModel) error {
	for _, sub := range subtasks {
		if err := n.send(sub.OwnerID, taskEvent{
			Type:    "subtask.created",
			TaskID:  sub.ID,
			OwnerID: sub.OwnerID,
			Subject: sub.Subject,
		}); err != nil {
			return err
		}
	}
	return nil
}

// TaskCompleted 推送任务完成事件
func (n *HubNotifier) TaskCompleted(task *model.TaskModel, actor string) error {
	return n.send(task.OwnerID, taskEvent{
		Type:    "task.completed",
		TaskID:  task.ID,
		OwnerID: task.OwnerID,
		Subject: task.Subject,
		Actor:   actor,
	})
}

// MultiNotifier 按序调用多个通知器,返回第一个失败
type MultiNotifier []Notifier

// TaskCreated 分发任务创建通知
func (m MultiNotifier) TaskCreated(task *model.TaskModel) error {
	var firstErr error
	for _, n := range m {
		if err := n.TaskCreated(task); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SubtasksCreated 分发子任务创建通知
func (m MultiNotifier) SubtasksCreated(parent *model.TaskModel, subtasks []*model.TaskModel) error {
	var firstErr error
	for _, n := range m {
		if err := n.SubtasksCreated(parent, subtasks); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// TaskCompleted 分发任务完成通知
func (m MultiNotifier) TaskCompleted(task *model.TaskModel, actor string) error {
	var firstErr error
	for _, n := range m {
		if err := n.TaskCompleted(task, actor); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
