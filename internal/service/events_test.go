package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"guardpost/backend/internal/model"
)

// waitForNotifications 轮询等待异步事件落库
func waitForNotifications(t *testing.T, repo *mockNotificationRepo, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if repo.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("等待事件落库超时，期望 %d 条，实际 %d 条", want, repo.count())
}

func TestNotificationEmitter_PersistsEvent(t *testing.T) {
	repos := newTestRepos()
	emitter := NewNotificationEmitter(repos.toRepository(), zap.NewNop())

	emitter.Emit(context.Background(), model.EventAssignmentCreated, "worker-1",
		"assignment", "assign-1",
		map[string]interface{}{"shift_id": "shift-1"})

	waitForNotifications(t, repos.notification, 1)

	list, _, err := repos.notification.ListByWorker(context.Background(), "worker-1", 0, 10)
	if err != nil {
		t.Fatalf("查询通知失败: %v", err)
	}
	n := list[0]
	if n.Type != model.EventAssignmentCreated {
		t.Errorf("事件类型错误: %s", n.Type)
	}
	if n.Title == "" || n.Content == "" {
		t.Error("通知标题与内容不应为空")
	}
	if n.RelatedID == nil || *n.RelatedID != "assign-1" {
		t.Error("应记录关联指派 ID")
	}
}

func TestNotificationEmitter_FailureDoesNotPropagate(t *testing.T) {
	repos := newTestRepos()
	repos.notification.createErr = errors.New("连接中断")
	emitter := NewNotificationEmitter(repos.toRepository(), zap.NewNop())

	// 落库失败只记日志，调用方不受影响
	emitter.Emit(context.Background(), model.EventGuardOverdue, "worker-1", "", "",
		map[string]interface{}{"overdue_min": 45})

	time.Sleep(50 * time.Millisecond)
	if repos.notification.count() != 0 {
		t.Error("失败的事件不应落库")
	}
}
