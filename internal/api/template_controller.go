package api

import (
	"net/http"

	"github.com/contabhub/onety-sub007/internal/auth"
	"github.com/contabhub/onety-sub007/internal/service"
	"github.com/gin-gonic/gin"
)

// TemplateController 流程模板控制器
type TemplateController struct {
	templateService service.TemplateService
}

// NewTemplateController 创建流程模板控制器
func NewTemplateController(templateService service.TemplateService) *TemplateController {
	return &TemplateController{
		templateService: templateService,
	}
}

// Create 创建模板
// @Summary      创建流程模板
// @Description  创建本地或全局标准流程模板
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        request body service.CreateTemplateRequest true "模板信息"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /templates [post]
// @Security     BearerAuth
func (c *TemplateController) Create(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req service.CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	tpl, err := c.templateService.Create(ctx.Request.Context(), p, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, tpl)
}

// List 列出可见模板
// @Summary      列出流程模板
// @Description  列出调用方公司的本地模板和全局标准模板
// @Tags         模板管理
// @Produce      json
// @Success      200  {object}  Response
// @Router       /templates [get]
// @Security     BearerAuth
func (c *TemplateController) List(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	tpls, err := c.templateService.List(p)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, tpls)
}

// Get 获取模板
// @Summary      获取模板详情
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [get]
// @Security     BearerAuth
func (c *TemplateController) Get(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	tpl, err := c.templateService.Get(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, tpl)
}

// Update 更新模板
// @Summary      更新模板的可编辑字段
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.UpdateTemplateRequest true "更新内容"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [put]
// @Security     BearerAuth
func (c *TemplateController) Update(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req service.UpdateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	tpl, err := c.templateService.Update(ctx.Request.Context(), p, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, tpl)
}

// Delete 删除模板
// @Summary      删除模板
// @Description  级联清理关联、清单项和任务引用,历史任务的清单文案保留
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id} [delete]
// @Security     BearerAuth
func (c *TemplateController) Delete(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	if err := c.templateService.Delete(ctx.Request.Context(), p, ctx.Param("id")); err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// GetChecklist 获取模板清单
// @Summary      获取模板清单项
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Router       /templates/{id}/checklist [get]
// @Security     BearerAuth
func (c *TemplateController) GetChecklist(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	items, err := c.templateService.GetChecklist(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, items)
}

// AppendChecklistItem 追加清单项
// @Summary      追加模板清单项
// @Description  新项排在清单末尾
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.AppendChecklistItemRequest true "清单项"
// @Success      201  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /templates/{id}/checklist [post]
// @Security     BearerAuth
func (c *TemplateController) AppendChecklistItem(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req service.AppendChecklistItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	item, err := c.templateService.AppendChecklistItem(ctx.Request.Context(), p, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, item)
}

// ReorderChecklist 重排清单项
// @Summary      重排模板清单项
// @Description  按给定顺序重排,顺序重新归一为连续的 1..N
// @Tags         模板管理
// @Accept       json
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        request body service.ReorderChecklistRequest true "新顺序"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /templates/{id}/checklist/reorder [post]
// @Security     BearerAuth
func (c *TemplateController) ReorderChecklist(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	var req service.ReorderChecklistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	items, err := c.templateService.ReorderChecklistItems(ctx.Request.Context(), p, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, items)
}

// DeleteChecklistItem 删除清单项
// @Summary      删除模板清单项
// @Description  引用该项的任务清单行先固化文案再解绑
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Param        item_id path string true "清单项 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/checklist/{item_id} [delete]
// @Security     BearerAuth
func (c *TemplateController) DeleteChecklistItem(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	if err := c.templateService.DeleteChecklistItem(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("item_id")); err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// ListLinks 列出子模板关联
// @Summary      列出子模板关联
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "模板 ID"
// @Success      200  {object}  Response
// @Router       /templates/{id}/links [get]
// @Security     BearerAuth
func (c *TemplateController) ListLinks(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	links, err := c.templateService.ListLinks(p, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, links)
}

// AddLink 添加子模板关联
// @Summary      添加子模板关联
// @Description  声明子模板可在实例化时被选中派生
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "父模板 ID"
// @Param        child_id path string true "子模板 ID"
// @Success      201  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /templates/{id}/links/{child_id} [post]
// @Security     BearerAuth
func (c *TemplateController) AddLink(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	if err := c.templateService.AddLink(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("child_id")); err != nil {
		HandleError(ctx, err)
		return
	}

	Created(ctx, nil)
}

// RemoveLink 删除子模板关联
// @Summary      删除子模板关联
// @Tags         模板管理
// @Produce      json
// @Param        id path string true "父模板 ID"
// @Param        child_id path string true "子模板 ID"
// @Success      200  {object}  Response
// @Router       /templates/{id}/links/{child_id} [delete]
// @Security     BearerAuth
func (c *TemplateController) RemoveLink(ctx *gin.Context) {
	p := auth.FromContext(ctx)
	if err := c.templateService.RemoveLink(ctx.Request.Context(), p, ctx.Param("id"), ctx.Param("child_id")); err != nil {
		HandleError(ctx, err)
		return
	}

	Success(ctx, nil)
}
