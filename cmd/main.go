package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"resume-analyzer-go/internal/api/handler"
	"resume-analyzer-go/internal/api/router"
	"resume-analyzer-go/internal/config"
	appCoreLogger "resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/parser"
	"resume-analyzer-go/internal/processor"
	"resume-analyzer-go/internal/storage"
	"resume-analyzer-go/internal/tool"
	"resume-analyzer-go/internal/tracing"
)

func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 追踪导出端点未配置时InitProvider返回no-op
	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Server.ServiceName, cfg.Server.OTLPEndpoint)
	if err != nil {
		glog.Fatalf("初始化追踪失败: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			glog.Warnf("关闭追踪导出器失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	pdfExtractor, err := parser.NewEinoPDFTextExtractor(ctx, parser.WithEinoLogger(log.New(os.Stderr, "[EinoPDFMain] ", log.LstdFlags)))
	if err != nil {
		glog.Fatalf("创建Eino PDF提取器失败: %v", err)
	}
	glog.Info("Eino PDF解析器初始化成功")

	if cfg.NER.ServerURL == "" {
		glog.Fatalf("未配置NER服务地址 (ner.server_url)")
	}
	recognizer := parser.NewHTTPEntityRecognizer(cfg.NER.ServerURL,
		parser.WithNERTimeout(time.Duration(cfg.NER.Timeout)*time.Second))
	glog.Infof("NER实体识别客户端初始化成功: %s", cfg.NER.ServerURL)

	ingestor, err := processor.NewIngestor(cfg, storageManager, pdfExtractor, recognizer)
	if err != nil {
		glog.Fatalf("初始化简历处理器失败: %v", err)
	}
	glog.Info("简历处理器初始化成功")

	if err := startUploadConsumer(cfg, storageManager, ingestor); err != nil {
		glog.Fatalf("启动简历上传消费者失败: %v", err)
	}

	uploadHandler := handler.NewUploadHandler(cfg, storageManager)
	submissionHandler := handler.NewSubmissionHandler(storageManager)
	candidateHandler := handler.NewCandidateHandler(storageManager.MySQL)
	toolHandler := handler.NewToolHandler(tool.NewDispatcher(storageManager.MySQL))
	glog.Info("API处理器初始化成功")

	tracer, tracingCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracingCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, uploadHandler, submissionHandler, candidateHandler, toolHandler, cfg.Server.ToolAPIKey)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// startUploadConsumer 声明队列拓扑并启动简历上传事件消费者
func startUploadConsumer(cfg *config.Config, storageManager *storage.Storage, ingestor *processor.Ingestor) error {
	mq := storageManager.RabbitMQ
	if mq == nil {
		glog.Warn("RabbitMQ未配置，跳过上传消费者启动，仅提供查询与工具API")
		return nil
	}

	if err := mq.EnsureExchange(cfg.RabbitMQ.ResumeEventsExchange, "direct", true); err != nil {
		return err
	}
	if err := mq.EnsureQueue(cfg.RabbitMQ.RawResumeQueue, true); err != nil {
		return err
	}
	if err := mq.BindQueue(cfg.RabbitMQ.RawResumeQueue, cfg.RabbitMQ.ResumeEventsExchange, cfg.RabbitMQ.UploadedRoutingKey); err != nil {
		return err
	}

	prefetch := cfg.RabbitMQ.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}
	if _, err := mq.StartConsumer(cfg.RabbitMQ.RawResumeQueue, prefetch, ingestor.UploadMessageHandler()); err != nil {
		return err
	}
	glog.Infof("简历上传消费者已启动，队列: %s, 预取数: %d", cfg.RabbitMQ.RawResumeQueue, prefetch)
	return nil
}

func initLogger() {
	logFilePath := "logs/app.log"
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("无法创建日志目录: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	// Hertz的hlog走同一个zerolog实例
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(glog.LevelInfo)
}
