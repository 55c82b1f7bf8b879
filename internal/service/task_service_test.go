package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/contabhub/onety-sub007/internal/apperr"
	"github.com/contabhub/onety-sub007/internal/dates"
	"github.com/contabhub/onety-sub007/internal/model"
	"github.com/contabhub/onety-sub007/internal/repository"
	"github.com/contabhub/onety-sub007/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testInstant = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// newTaskService 构造任务服务,时钟固定便于断言日期
func newTaskService(db *gorm.DB) service.TaskService {
	auditSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	return service.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewTemplateRepository(db),
		db,
		dates.FixedClock{Instant: testInstant},
		nil,
		nil,
		auditSvc,
	)
}

// seedTemplate 直接落库一个本地模板(测试辅助)
func seedTemplate(t *testing.T, db *gorm.DB, id, companyID, name string, targetOffset, deadlineOffset int) *model.ProcessTemplateModel {
	company := companyID
	dept := "dept-" + id
	tpl := &model.ProcessTemplateModel{
		ID:                 id,
		Name:               name,
		TargetOffsetDays:   &targetOffset,
		DeadlineOffsetDays: &deadlineOffset,
		CompanyID:          &company,
		DepartmentID:       &dept,
		ReferenceDateMode:  model.ReferenceModeCreation,
	}
	require.NoError(t, db.Create(tpl).Error)
	return tpl
}

// seedChecklistItem 给模板落库一个清单项(测试辅助)
func seedChecklistItem(t *testing.T, db *gorm.DB, id, templateID, text string, order int) *model.ChecklistItemTemplateModel {
	item := &model.ChecklistItemTemplateModel{
		ID:           id,
		TemplateID:   templateID,
		OrderIndex:   order,
		Text:         text,
		CancelPolicy: model.CancelPolicyWithJustification,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func seedLink(t *testing.T, db *gorm.DB, parentID, childID string) {
	require.NoError(t, db.Create(&model.TemplateLinkModel{
		ParentTemplateID: parentID,
		ChildTemplateID:  childID,
	}).Error)
}

// TestTaskCreate_ComputesDatesFromOffsets 测试三个日期省略时按模板偏移计算
func TestTaskCreate_ComputesDatesFromOffsets(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Onboarding", 5, 3)

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "New client",
	})
	require.NoError(t, err)

	task := tree.Task
	require.NotNil(t, task.ActionDate)
	require.NotNil(t, task.TargetDate)
	require.NotNil(t, task.DeadlineDate)
	assert.Equal(t, testInstant, *task.ActionDate)
	assert.Equal(t, testInstant.AddDate(0, 0, 5), *task.TargetDate)
	// deadline 在 target 之上累加
	assert.Equal(t, testInstant.AddDate(0, 0, 8), *task.DeadlineDate)
	assert.Equal(t, model.StatusOpen, task.Status)
	// 部门回落到模板部门
	assert.Equal(t, "dept-tpl-1", task.DepartmentID)
}

// TestTaskCreate_ExplicitDatesUsedAsIs 测试显式给出的日期原样使用
func TestTaskCreate_ExplicitDatesUsedAsIs(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Onboarding", 5, 3)

	action := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Manual dates",
		ActionDate: &action,
	})
	require.NoError(t, err)

	// 只要有任一日期显式给出,其余不做推算
	require.NotNil(t, tree.Task.ActionDate)
	assert.Equal(t, action, *tree.Task.ActionDate)
	assert.Nil(t, tree.Task.TargetDate)
	assert.Nil(t, tree.Task.DeadlineDate)
}

// TestTaskCreate_SnapshotsChecklist 测试清单快照逐行生成并引用模板项
func TestTaskCreate_SnapshotsChecklist(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Onboarding", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "step one", 1)
	seedChecklistItem(t, db, "ci-2", "tpl-1", "step two", 2)

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "With checklist",
	})
	require.NoError(t, err)

	views, err := svc.ChecklistViews(memberPrincipal("company-a"), tree.Task.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, model.SourceLive, v.Source)
		assert.False(t, v.Done)
		assert.False(t, v.Canceled)
	}
	assert.Equal(t, "step one", views[0].Text)
	assert.Equal(t, "step two", views[1].Text)
}

// TestTaskCreate_EmptySelection 测试空选择不派生子任务
// 关联是可能性目录,不是义务
func TestTaskCreate_EmptySelection(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	seedTemplate(t, db, "tpl-2", "company-a", "Child A", 2, 2)
	seedTemplate(t, db, "tpl-3", "company-a", "Child B", 2, 2)
	seedLink(t, db, "tpl-1", "tpl-2")
	seedLink(t, db, "tpl-1", "tpl-3")

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "No children",
	})
	require.NoError(t, err)

	assert.Empty(t, tree.Subtasks)

	var count int64
	db.Model(&model.TaskModel{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestTaskCreate_SelectionIntersectsLinks 测试选择与关联目录求交集
// 目录外的 ID 静默忽略
func TestTaskCreate_SelectionIntersectsLinks(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	seedTemplate(t, db, "tpl-2", "company-a", "Linked child", 2, 4)
	seedTemplate(t, db, "tpl-9", "company-a", "Unlinked", 2, 2)
	seedLink(t, db, "tpl-1", "tpl-2")

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID:               "tpl-1",
		ClientID:                 "client-1",
		Subject:                  "Parent task",
		Attachments:              []string{"file-1"},
		SelectedChildTemplateIDs: []string{"tpl-2", "tpl-9", "ghost", "tpl-2"},
	})
	require.NoError(t, err)

	require.Len(t, tree.Subtasks, 1)
	sub := tree.Subtasks[0]
	assert.Equal(t, "tpl-2", *sub.TemplateID)
	assert.Equal(t, tree.Task.ID, *sub.ParentTaskID)
	// 子任务沿用父任务的公司/客户/附件
	assert.Equal(t, *tree.Task.CompanyID, *sub.CompanyID)
	assert.Equal(t, "client-1", sub.ClientID)
	assert.Equal(t, tree.Task.Attachments, sub.Attachments)
	// 主题取子模板名称,部门取子模板部门
	assert.Equal(t, "Linked child", sub.Subject)
	assert.Equal(t, "dept-tpl-2", sub.DepartmentID)
}

// TestTaskCreate_SubtaskDatesFromParentAction 测试子任务日期直接相对父任务 action
func TestTaskCreate_SubtaskDatesFromParentAction(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 5, 3)
	seedTemplate(t, db, "tpl-2", "company-a", "Child", 2, 4)
	seedLink(t, db, "tpl-1", "tpl-2")

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID:               "tpl-1",
		ClientID:                 "client-1",
		Subject:                  "Parent task",
		SelectedChildTemplateIDs: []string{"tpl-2"},
	})
	require.NoError(t, err)

	require.Len(t, tree.Subtasks, 1)
	sub := tree.Subtasks[0]
	parentAction := *tree.Task.ActionDate
	assert.Equal(t, parentAction, *sub.ActionDate)
	assert.Equal(t, parentAction.AddDate(0, 0, 2), *sub.TargetDate)
	// 子任务的 deadline 不链式累加: action+4,而非 target+4
	assert.Equal(t, parentAction.AddDate(0, 0, 4), *sub.DeadlineDate)
}

// TestTaskCreate_NoRecursiveFanout 测试子任务不再继续派生
// 即使子模板自己声明了关联,展开也只有一层
func TestTaskCreate_NoRecursiveFanout(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	seedTemplate(t, db, "tpl-2", "company-a", "Child", 1, 1)
	seedTemplate(t, db, "tpl-3", "company-a", "Grandchild", 1, 1)
	seedLink(t, db, "tpl-1", "tpl-2")
	seedLink(t, db, "tpl-2", "tpl-3")

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID:               "tpl-1",
		ClientID:                 "client-1",
		Subject:                  "Parent task",
		SelectedChildTemplateIDs: []string{"tpl-2"},
	})
	require.NoError(t, err)

	require.Len(t, tree.Subtasks, 1)
	var count int64
	db.Model(&model.TaskModel{}).Count(&count)
	assert.Equal(t, int64(2), count)

	// 子任务自身没有 children
	children, err := svc.ListChildren(memberPrincipal("company-a"), tree.Subtasks[0].ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

// TestTaskCreate_AtomicRollback 测试实例化失败时整树回滚
// 通过删掉清单表让事务中途失败,任务行不应残留
func TestTaskCreate_AtomicRollback(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "step", 1)

	require.NoError(t, db.Migrator().DropTable(&model.TaskChecklistItemModel{}))

	_, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Doomed",
	})
	require.Error(t, err)

	var count int64
	db.Model(&model.TaskModel{}).Count(&count)
	assert.Equal(t, int64(0), count, "no partial tree may survive a failed instantiation")
}

// TestTaskComplete_GateOnOpenChildren 测试未完结子任务阻止父任务完结
func TestTaskComplete_GateOnOpenChildren(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	seedTemplate(t, db, "tpl-2", "company-a", "Child", 1, 1)
	seedLink(t, db, "tpl-1", "tpl-2")

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID:               "tpl-1",
		ClientID:                 "client-1",
		Subject:                  "Parent task",
		SelectedChildTemplateIDs: []string{"tpl-2"},
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), p, tree.Task.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// 取消也走同一套守卫
	_, err = svc.Cancel(context.Background(), p, tree.Task.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// 父任务保持打开
	after, err := svc.Get(p, tree.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, after.Status)

	// 子任务完结后父任务可以完结(取消也算终态)
	_, err = svc.Cancel(context.Background(), p, tree.Subtasks[0].ID, nil)
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), p, tree.Task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
}

// TestTaskComplete_AllowFinishBeforeChildren 测试放行标志绕过守卫
func TestTaskComplete_AllowFinishBeforeChildren(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	parent := seedTemplate(t, db, "tpl-1", "company-a", "Parent", 1, 1)
	parent.AllowFinishBeforeChildren = true
	require.NoError(t, db.Save(parent).Error)
	seedTemplate(t, db, "tpl-2", "company-a", "Child", 1, 1)
	seedLink(t, db, "tpl-1", "tpl-2")

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID:               "tpl-1",
		ClientID:                 "client-1",
		Subject:                  "Parent task",
		SelectedChildTemplateIDs: []string{"tpl-2"},
	})
	require.NoError(t, err)

	done, err := svc.Complete(context.Background(), p, tree.Task.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	// 子任务保持打开,互不影响
	child, err := svc.Get(p, tree.Subtasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, child.Status)
}

// TestTaskComplete_TimestampNormalized 测试完成时间戳归一到 UTC-3
func TestTaskComplete_TimestampNormalized(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	at := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	done, err := svc.Complete(context.Background(), p, tree.Task.ID, &at)
	require.NoError(t, err)

	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(at))
	_, offset := done.CompletedAt.Zone()
	assert.Equal(t, -3*60*60, offset)
	// UTC 的 23:30 在 UTC-3 是 20:30,仍是同一天
	assert.Equal(t, 20, done.CompletedAt.Hour())
}

// TestTaskComplete_NotOpen 测试终态任务不能再次完结
func TestTaskComplete_NotOpen(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), p, tree.Task.ID, nil)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), p, tree.Task.ID, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

// TestTaskReopen_ClearsBothTimestamps 测试重开清空两个终态时间戳
func TestTaskReopen_ClearsBothTimestamps(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), p, tree.Task.ID, nil)
	require.NoError(t, err)

	reopened, err := svc.Reopen(context.Background(), p, tree.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.CompletedAt)
	assert.Nil(t, reopened.CanceledAt)

	// 数据库中的行同样被清空
	var after model.TaskModel
	require.NoError(t, db.First(&after, "id = ?", tree.Task.ID).Error)
	assert.Nil(t, after.CompletedAt)
	assert.Nil(t, after.CanceledAt)
}

// TestTaskReopen_RequiresTerminal 测试打开状态的任务不能重开
func TestTaskReopen_RequiresTerminal(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	_, err = svc.Reopen(context.Background(), p, tree.Task.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

// TestChecklistItem_DoneAndUndo 测试清单项勾选与回退
func TestChecklistItem_DoneAndUndo(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "step", 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	views, err := svc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	itemID := views[0].ID

	marked, err := svc.MarkItemDone(context.Background(), p, tree.Task.ID, itemID)
	require.NoError(t, err)
	assert.True(t, marked.Done)
	require.NotNil(t, marked.CompletedAt)
	// 操作者显示名快照
	assert.Equal(t, "Member", marked.CompletedBy)

	// 勾选不影响任务状态
	task, err := svc.Get(p, tree.Task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, task.Status)

	unmarked, err := svc.UnmarkItemDone(context.Background(), p, tree.Task.ID, itemID)
	require.NoError(t, err)
	assert.False(t, unmarked.Done)
	assert.Nil(t, unmarked.CompletedAt)
	assert.Empty(t, unmarked.CompletedBy)
}

// TestChecklistItem_CancelRequiresJustification 测试取消策略强制理由
func TestChecklistItem_CancelRequiresJustification(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "strict step", 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	views, err := svc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	itemID := views[0].ID

	_, err = svc.CancelItem(context.Background(), p, tree.Task.ID, itemID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	canceled, err := svc.CancelItem(context.Background(), p, tree.Task.ID, itemID, "client gave up")
	require.NoError(t, err)
	assert.True(t, canceled.Canceled)
	assert.Equal(t, "client gave up", canceled.Justification)
	// 取消时刻被记录并归一化到固定时区
	require.NotNil(t, canceled.CanceledAt)
	assert.True(t, canceled.CanceledAt.Equal(testInstant))
	_, offset := canceled.CanceledAt.Zone()
	assert.Equal(t, -3*60*60, offset)

	restored, err := svc.UncancelItem(context.Background(), p, tree.Task.ID, itemID)
	require.NoError(t, err)
	assert.False(t, restored.Canceled)
	assert.Empty(t, restored.Justification)
	assert.Nil(t, restored.CanceledAt)
}

// TestChecklistItem_FreePolicy 测试自由取消策略不要求理由
func TestChecklistItem_FreePolicy(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)
	require.NoError(t, db.Create(&model.ChecklistItemTemplateModel{
		ID:           "ci-free",
		TemplateID:   "tpl-1",
		OrderIndex:   1,
		Text:         "optional step",
		CancelPolicy: model.CancelPolicyFree,
	}).Error)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	views, err := svc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	canceled, err := svc.CancelItem(context.Background(), p, tree.Task.ID, views[0].ID, "")
	require.NoError(t, err)
	assert.True(t, canceled.Canceled)
}

// TestChecklistItem_AttachDetach 测试附件挂载与摘除
// 摘除附件时勾选状态一并复位
func TestChecklistItem_AttachDetach(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "with file", 1)

	tree, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	views, err := svc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	itemID := views[0].ID

	attached, err := svc.AttachItemFile(context.Background(), p, tree.Task.ID, itemID, []byte("pdf bytes"), "contract.pdf")
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", attached.AttachmentFilename)

	_, err = svc.MarkItemDone(context.Background(), p, tree.Task.ID, itemID)
	require.NoError(t, err)

	detached, err := svc.DetachItemFile(context.Background(), p, tree.Task.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, detached.AttachmentPayload)
	assert.Empty(t, detached.AttachmentFilename)
	assert.False(t, detached.Done)
	assert.Nil(t, detached.CompletedAt)
	assert.Empty(t, detached.CompletedBy)
}

// TestChecklistViews_FrozenAfterTemplateDelete 测试模板删除后视图切换为固化副本
func TestChecklistViews_FrozenAfterTemplateDelete(t *testing.T) {
	db := setupTestDB(t)
	taskSvc := newTaskService(db)
	templateSvc := newTemplateService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Doomed template", 1, 1)
	seedChecklistItem(t, db, "ci-1", "tpl-1", "original wording", 1)

	tree, err := taskSvc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Task",
	})
	require.NoError(t, err)

	before, err := taskSvc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, model.SourceLive, before[0].Source)

	require.NoError(t, templateSvc.Delete(context.Background(), p, "tpl-1"))

	after, err := taskSvc.ChecklistViews(p, tree.Task.ID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, model.SourceFrozen, after[0].Source)
	assert.Equal(t, "original wording", after[0].Text)
	assert.Nil(t, after[0].ItemTemplateID)

	// 任务脱离模板后完结不再受子任务守卫
	task, err := taskSvc.Get(p, tree.Task.ID)
	require.NoError(t, err)
	assert.Nil(t, task.TemplateID)
}

// TestTaskVisibility 测试任务的公司可见性
func TestTaskVisibility(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	tree, err := svc.Create(context.Background(), memberPrincipal("company-a"), &service.CreateTaskRequest{
		TemplateID: "tpl-1",
		ClientID:   "client-1",
		Subject:    "Private task",
	})
	require.NoError(t, err)

	_, err = svc.Get(memberPrincipal("company-b"), tree.Task.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	listed, err := svc.List(memberPrincipal("company-b"), nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

// TestTaskList_StatusFilter 测试按状态过滤
func TestTaskList_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db)
	p := memberPrincipal("company-a")
	seedTemplate(t, db, "tpl-1", "company-a", "Simple", 1, 1)

	first, err := svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1", ClientID: "client-1", Subject: "One",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), p, &service.CreateTaskRequest{
		TemplateID: "tpl-1", ClientID: "client-1", Subject: "Two",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), p, first.Task.ID, nil)
	require.NoError(t, err)

	status := model.StatusOpen
	open, err := svc.List(p, &repository.TaskFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Two", open[0].Subject)
}
