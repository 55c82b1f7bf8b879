package model_test

import (
	"testing"

	"github.com/contabhub/onety-sub007/internal/model"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

// TestTemplateScope 测试模板作用域判定
func TestTemplateScope(t *testing.T) {
	local := &model.ProcessTemplateModel{CompanyID: strPtr("company-a")}
	standard := &model.ProcessTemplateModel{IsGlobalStandard: true}

	assert.Equal(t, model.ScopeLocal, local.Scope())
	assert.Equal(t, model.ScopeStandard, standard.Scope())
}

// TestTemplateVisibleTo 测试模板可见性
func TestTemplateVisibleTo(t *testing.T) {
	local := &model.ProcessTemplateModel{CompanyID: strPtr("company-a")}
	standard := &model.ProcessTemplateModel{IsGlobalStandard: true}

	assert.True(t, local.VisibleTo("company-a"))
	assert.False(t, local.VisibleTo("company-b"))
	assert.True(t, standard.VisibleTo("company-a"))
	assert.True(t, standard.VisibleTo("company-b"))
}

// TestTemplateValidate_Standard 测试标准模板的构造不变量
func TestTemplateValidate_Standard(t *testing.T) {
	tpl := &model.ProcessTemplateModel{
		Name:                "Standard",
		TargetOffsetDays:    intPtr(1),
		DeadlineOffsetDays:  intPtr(1),
		IsGlobalStandard:    true,
		GlobalDepartmentRef: strPtr("global-ops"),
	}
	assert.NoError(t, tpl.Validate())

	// 标准模板不能携带公司本地字段
	tpl.CompanyID = strPtr("company-a")
	assert.Error(t, tpl.Validate())

	// 全局部门引用必填
	tpl.CompanyID = nil
	tpl.GlobalDepartmentRef = nil
	assert.Error(t, tpl.Validate())
}

// TestTemplateValidate_Local 测试本地模板必须归属公司
func TestTemplateValidate_Local(t *testing.T) {
	tpl := &model.ProcessTemplateModel{
		Name:               "Local",
		TargetOffsetDays:   intPtr(1),
		DeadlineOffsetDays: intPtr(1),
	}
	assert.Error(t, tpl.Validate())

	tpl.CompanyID = strPtr("company-a")
	assert.NoError(t, tpl.Validate())
}

// TestTaskIsTerminal 测试任务终态判定
func TestTaskIsTerminal(t *testing.T) {
	assert.False(t, (&model.TaskModel{Status: model.StatusOpen}).IsTerminal())
	assert.True(t, (&model.TaskModel{Status: model.StatusCompleted}).IsTerminal())
	assert.True(t, (&model.TaskModel{Status: model.StatusCanceled}).IsTerminal())
}

// TestTaskVisibleTo 测试无公司任务对所有公司可见
func TestTaskVisibleTo(t *testing.T) {
	owned := &model.TaskModel{CompanyID: strPtr("company-a")}
	shared := &model.TaskModel{}

	assert.True(t, owned.VisibleTo("company-a"))
	assert.False(t, owned.VisibleTo("company-b"))
	assert.True(t, shared.VisibleTo("company-a"))
	assert.True(t, shared.VisibleTo("company-b"))
}

// TestChecklistItemView_Live 测试引用仍在时展示字段实时来自模板
func TestChecklistItemView_Live(t *testing.T) {
	tpl := &model.ChecklistItemTemplateModel{
		ID:           "ci-1",
		Text:         "current wording",
		ItemType:     "document",
		CancelPolicy: model.CancelPolicyFree,
	}
	item := &model.TaskChecklistItemModel{
		ID:             "tci-1",
		TaskID:         "task-1",
		ItemTemplateID: strPtr("ci-1"),
		Done:           true,
	}

	v := item.View(tpl)

	assert.Equal(t, model.SourceLive, v.Source)
	assert.Equal(t, "current wording", v.Text)
	assert.Equal(t, model.CancelPolicyFree, v.CancelPolicy)
	assert.True(t, v.Done)
}

// TestChecklistItemView_Frozen 测试解绑后展示字段来自固化副本
func TestChecklistItemView_Frozen(t *testing.T) {
	item := &model.TaskChecklistItemModel{
		ID:           "tci-1",
		TaskID:       "task-1",
		Text:         "frozen wording",
		CancelPolicy: model.CancelPolicyWithJustification,
	}

	v := item.View(nil)

	assert.Equal(t, model.SourceFrozen, v.Source)
	assert.Equal(t, "frozen wording", v.Text)
	assert.Nil(t, v.ItemTemplateID)
}

// TestChecklistItemView_AttachmentFlag 测试附件只暴露存在标记和文件名
func TestChecklistItemView_AttachmentFlag(t *testing.T) {
	item := &model.TaskChecklistItemModel{
		ID:                 "tci-1",
		TaskID:             "task-1",
		Text:               "with file",
		AttachmentPayload:  []byte("bytes"),
		AttachmentFilename: "doc.pdf",
	}

	v := item.View(nil)

	assert.True(t, v.HasAttachment)
	assert.Equal(t, "doc.pdf", v.AttachmentFilename)
}
