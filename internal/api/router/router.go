package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-analyzer-go/internal/api/handler"
)

// RegisterRoutes 注册API路由
// toolAPIKey非空时，工具接口启用Bearer鉴权；上传与只读接口保持开放
func RegisterRoutes(h *server.Hertz,
	uploadHandler *handler.UploadHandler,
	submissionHandler *handler.SubmissionHandler,
	candidateHandler *handler.CandidateHandler,
	toolHandler *handler.ToolHandler,
	toolAPIKey string,
) {
	api := h.Group("/api/v1")

	api.POST("/resume/upload", uploadHandler.Upload)
	api.GET("/submissions/:uuid", submissionHandler.Get)

	api.GET("/candidates", candidateHandler.List)
	api.GET("/candidates/:id", candidateHandler.Get)

	tools := api.Group("/tools")
	if toolAPIKey != "" {
		tools.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == toolAPIKey, nil
			}),
		))
	}
	tools.GET("", toolHandler.ListTools)
	tools.POST("/:name", toolHandler.Invoke)

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
