package api

import (
	"io"
	"net/http"
	"time"

	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/repository"
	"github.com/contabhub/onety-sub007/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskController 任务控制器
type TaskController struct {
	taskService service.TaskService
}

// NewTaskController 创建任务控制器
func NewTaskController(taskService service.TaskService) *TaskController {
	return &TaskController{
		taskService: taskService,
	}
}

// FinalizeRequest 终态迁移请求
// @Description 可选的完成/取消时刻,省略时使用服务器当前时间
type FinalizeRequest struct {
	At *time.Time `json:"at"`
}

// CancelItemRequest 取消清单项请求
type CancelItemRequest struct {
	Justification string `json:"justification"`
}

// Create 创建任务
// @Summary      按模板实例化任务
// @Description  创建主任务及其清单快照,可同时派生选中的子模板
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTaskRequest true "任务信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks [post]
// @Security     BearerAuth
func (c *TaskController) Create(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req service.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	tree, err := c.taskService.Create(ctx.Request.Context(), p, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, tree)
}

// List 列出任务
// @Summary      列出任务
// @Description  按状态、模板、客户等条件过滤调用方公司可见的任务
// @Tags         任务管理
// @Produce      json
// @Param        status query string false "任务状态"
// @Param        template_id query string false "来源模板 ID"
// @Param        client_id query string false "客户 ID"
// @Param        owner_id query string false "负责人 ID"
// @Param        department_id query string false "部门 ID"
// @Success      200  {object}  Response
// @Router       /tasks [get]
// @Security     BearerAuth
func (c *TaskController) List(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	filter := &repository.TaskFilter{}
	if v := ctx.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := ctx.Query("template_id"); v != "" {
		filter.TemplateID = &v
	}
	if v := ctx.Query("client_id"); v != "" {
		filter.ClientID = &v
	}
	if v := ctx.Query("owner_id"); v != "" {
		filter.OwnerID = &v
	}
	if v := ctx.Query("department_id"); v != "" {
		filter.DepartmentID = &v
	}

	tasks, err := c.taskService.List(p, filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, tasks)
}

// Get 获取任务
// @Summary      获取任务详情
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
// @Security     BearerAuth
func (c *TaskController) Get(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	task, err := c.taskService.Get(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, task)
}

// ListChildren 列出子任务
// @Summary      列出任务的子任务
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/children [get]
// @Security     BearerAuth
func (c *TaskController) ListChildren(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	children, err := c.taskService.ListChildren(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, children)
}

// Complete 完结任务
// @Summary      完结任务
// @Description  存在未完结子任务且未放行提前完结时返回 409
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        request body FinalizeRequest false "完成时刻"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/complete [post]
// @Security     BearerAuth
func (c *TaskController) Complete(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req FinalizeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	task, err := c.taskService.Complete(ctx.Request.Context(), p, ctx.Param("id"), req.At)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Cancel 取消任务
// @Summary      取消任务
// @Description  与完结走同一套子任务守卫
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        request body FinalizeRequest false "取消时刻"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/cancel [post]
// @Security     BearerAuth
func (c *TaskController) Cancel(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req FinalizeRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	task, err := c.taskService.Cancel(ctx.Request.Context(), p, ctx.Param("id"), req.At)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, task)
}

// Reopen 重新打开任务
// @Summary      重新打开已完结或已取消的任务
// @Description  清空完成和取消时间戳,无守卫
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      409  {object}  ErrorResponse
// @Router       /tasks/{id}/reopen [post]
// @Security     BearerAuth
func (c *TaskController) Reopen(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	task, err := c.taskService.Reopen(ctx.Request.Context(), p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, task)
}

// GetChecklist 获取任务清单
// @Summary      获取任务清单视图
// @Description  每项带 live/frozen 来源标记
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/checklist [get]
// @Security     BearerAuth
func (c *TaskController) GetChecklist(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	views, err := c.taskService.ChecklistViews(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, views)
}

// MarkItemDone 勾选清单项
// @Summary      勾选任务清单项
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/checklist/{item_id}/done [post]
// @Security     BearerAuth
func (c *TaskController) MarkItemDone(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	item, err := c.taskService.MarkItemDone(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}

// UnmarkItemDone 取消勾选清单项
// @Summary      取消勾选任务清单项
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/checklist/{item_id}/done [delete]
// @Security     BearerAuth
func (c *TaskController) UnmarkItemDone(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	item, err := c.taskService.UnmarkItemDone(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}

// CancelItem 取消清单项
// @Summary      取消任务清单项
// @Description  策略为 with_justification 时理由必填
// @Tags         任务管理
// @Accept       json
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Param        request body CancelItemRequest false "取消理由"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /tasks/{id}/checklist/{item_id}/cancel [post]
// @Security     BearerAuth
func (c *TaskController) CancelItem(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req CancelItemRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	item, err := c.taskService.CancelItem(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"), req.Justification)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}

// UncancelItem 恢复已取消的清单项
// @Summary      恢复任务清单项
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/checklist/{item_id}/cancel [delete]
// @Security     BearerAuth
func (c *TaskController) UncancelItem(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	item, err := c.taskService.UncancelItem(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}

// AttachItemFile 给清单项挂附件
// @Summary      上传任务清单项附件
// @Tags         任务管理
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Param        file formData file true "附件"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /tasks/{id}/checklist/{item_id}/attachment [post]
// @Security     BearerAuth
func (c *TaskController) AttachItemFile(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	header, err := ctx.FormFile("file")
	if err != nil {
		Error(ctx, http.StatusBadRequest, "file is required", err.Error())
		return
	}
	file, err := header.Open()
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to open file", err.Error())
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}

	item, err := c.taskService.AttachItemFile(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"), payload, header.Filename)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}

// DetachItemFile 摘除清单项附件
// @Summary      摘除任务清单项附件
// @Description  附件摘除时清单项的勾选状态一并复位
// @Tags         任务管理
// @Produce      json
// @Param        id path string true "任务 ID"
// @Param        item_id path string true "清单项 ID"
// @Success      200  {object}  Response
// @Router       /tasks/{id}/checklist/{item_id}/attachment [delete]
// @Security     BearerAuth
func (c *TaskController) DetachItemFile(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	item, err := c.taskService.DetachItemFile(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, item)
}
