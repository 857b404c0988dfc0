package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/tool"
)

// ToolHandler 工具调用接口
// POST /api/v1/tools/:name，JSON请求体作为工具参数，返回格式化文本
type ToolHandler struct {
	dispatcher *tool.Dispatcher
}

// NewToolHandler 创建工具调用处理器
func NewToolHandler(dispatcher *tool.Dispatcher) *ToolHandler {
	return &ToolHandler{dispatcher: dispatcher}
}

// Invoke 执行指定工具
func (h *ToolHandler) Invoke(c context.Context, ctx *app.RequestContext) {
	name := ctx.Param("name")
	if name == "" {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "缺少工具名"})
		return
	}

	args := tool.Args{}
	if len(ctx.Request.Body()) > 0 {
		if err := ctx.BindJSON(&args); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是合法的JSON对象"})
			return
		}
	}

	result, err := h.dispatcher.Dispatch(c, name, args)
	if err != nil {
		switch {
		case errors.Is(err, tool.ErrUnknownTool):
			ctx.JSON(consts.StatusNotFound, utils.H{
				"error": err.Error(),
				"tools": h.dispatcher.Names(),
			})
		case errors.Is(err, tool.ErrInvalidArgs):
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		default:
			logger.Error().Err(err).Str("tool", name).Msg("工具执行失败")
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		}
		return
	}

	ctx.JSON(consts.StatusOK, utils.H{
		"tool":   name,
		"result": result,
	})
}

// ListTools GET /api/v1/tools，列出全部可用工具名
func (h *ToolHandler) ListTools(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"tools": h.dispatcher.Names()})
}
