package handler

import (
	"time"

	"github.com/user/dataminer/internal/config"
	"github.com/user/dataminer/internal/repository"
	"github.com/user/dataminer/internal/service"
	"github.com/user/dataminer/internal/utils"
)

// proxyTimeout 代理视频等大文件时的整体超时
const proxyTimeout = 10 * time.Minute

// Handler HTTP 处理器
type Handler struct {
	Config     *config.Config
	Extraction *service.ExtractionService
	Runs       *service.RunRegistry
	Tables     repository.TableHost
	Export     *service.ExportService
	Cleanup    *service.CleanupService
	Signer     *utils.ProxySigner

	client *utils.HTTPClient
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, extraction *service.ExtractionService, runs *service.RunRegistry, tables repository.TableHost, cleanup *service.CleanupService, signer *utils.ProxySigner) *Handler {
	return &Handler{
		Config:     cfg,
		Extraction: extraction,
		Runs:       runs,
		Tables:     tables,
		Export:     service.NewExportService(tables),
		Cleanup:    cleanup,
		Signer:     signer,
		client:     utils.NewHTTPClient(proxyTimeout),
	}
}
