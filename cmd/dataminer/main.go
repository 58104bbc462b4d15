package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/user/dataminer/internal/config"
	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
	"github.com/user/dataminer/internal/service"
	"github.com/user/dataminer/internal/utils"
)

// options 命令行参数，未指定的取环境变量或默认值
type options struct {
	APIKey         string   `long:"api-key" env:"DATAMINER_API_KEY" description:"远程提取接口的 API Key" required:"true"`
	Type           string   `short:"t" long:"type" default:"details" choice:"homepage" choice:"details" choice:"comments" description:"提取类型"`
	URLs           []string `short:"u" long:"url" description:"作品或主页链接，可重复指定" required:"true"`
	Range          string   `short:"r" long:"range" default:"1" description:"页数或 all"`
	StartDate      string   `long:"start-date" description:"只提取该日期之后发布的作品"`
	IncludeReplies bool     `long:"include-replies" description:"评论提取时包含回复"`
	APIBaseURL     string   `long:"api-base-url" env:"API_BASE_URL" description:"远程提取接口地址"`
	DatabaseURL    string   `long:"database-url" env:"DATAMINER_DATABASE_URL" description:"写入 postgres，未指定时写入内存表格"`
	TableID        string   `long:"table-id" description:"写入已有表格，未指定时新建"`
	XLSX           string   `long:"xlsx" description:"把结果表格导出到该路径"`
	JSON           bool     `long:"json" description:"输出完整的 JSON 结果"`
	Quiet          bool     `short:"q" long:"quiet" description:"不输出进度"`
}

func main() {
	// 没有 .env 时直接使用系统环境变量
	_ = godotenv.Load()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ok, err := run(ctx, &opts, config.Load(), os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// run 执行一次提取，返回是否成功
func run(ctx context.Context, opts *options, cfg *config.Config, stdout, stderr io.Writer) (bool, error) {
	if opts.APIBaseURL != "" {
		cfg.APIBaseURL = opts.APIBaseURL
	}

	rng, err := model.ParseRangeSpec(opts.Range)
	if err != nil {
		return false, err
	}
	if opts.StartDate != "" {
		if _, ok := utils.ParseDateTime(opts.StartDate); !ok {
			return false, fmt.Errorf("无法解析起始日期: %s", opts.StartDate)
		}
	}

	tables, closeStore, err := openStore(opts.DatabaseURL)
	if err != nil {
		return false, err
	}
	defer closeStore()

	factory := service.NewFactory(service.Deps{
		Client:   service.NewAPIClient(cfg.APIBaseURL, cfg.APITimeout),
		Signer:   utils.NewProxySigner(cfg.ProxySecret, cfg.ProxyBaseURL),
		Resolver: service.NewShortLinkResolver(10 * time.Second),
		Pacing: service.Pacing{
			PageDelay:  cfg.PageDelay,
			ReplyDelay: cfg.ReplyDelay,
			URLDelay:   cfg.URLDelay,
		},
	})
	extraction := service.NewExtractionService(factory, service.NewTableService(tables, cfg.TableBatchSize), service.NewExtractionCache(cfg.CacheTTL))
	if err := extraction.Initialize(ctx); err != nil {
		return false, err
	}

	req := &model.ExtractionRequest{
		APIKey:         opts.APIKey,
		ExtractType:    model.ExtractType(opts.Type),
		URL:            strings.Join(opts.URLs, "\n"),
		Range:          rng,
		StartDate:      opts.StartDate,
		IncludeReplies: opts.IncludeReplies,
		TableOptions: model.TableOptions{
			TableID:        opts.TableID,
			CreateNewTable: opts.TableID == "",
		},
	}

	var listener service.RunListener
	if !opts.Quiet {
		listener.OnProgress = func(p float64, msg string) {
			fmt.Fprintf(stderr, "[%3.0f%%] %s\n", p, msg)
		}
	}
	resp := extraction.ExtractAndUpdate(ctx, req, listener)

	if opts.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return false, err
		}
	} else {
		printSummary(stdout, resp)
	}

	if opts.XLSX != "" && resp.TableResult != nil && resp.TableResult.TableID != "" {
		if err := exportXLSX(ctx, tables, resp.TableResult.TableID, opts.XLSX); err != nil {
			return false, err
		}
		fmt.Fprintf(stdout, "已导出: %s\n", opts.XLSX)
	}
	return resp.Success, nil
}

// openStore 指定数据库时写入 postgres，否则使用内存表格
func openStore(databaseURL string) (repository.TableHost, func(), error) {
	if databaseURL == "" {
		return repository.NewMemoryTableStore(), func() {}, nil
	}
	db, err := repository.InitDB(databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return repository.NewTableStore(db), func() { sqlDB.Close() }, nil
}

func exportXLSX(ctx context.Context, tables repository.TableHost, tableID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := service.NewExportService(tables).ExportXLSX(ctx, tableID, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, resp *model.ExtractionResponse) {
	fmt.Fprintln(w, resp.Message)
	if r := resp.ExtractResult; r != nil {
		fmt.Fprintf(w, "平台: %s  类型: %s  提取: %d 条\n", r.Platform, r.ExtractType.DisplayName(), resp.ExtractedCount)
	}
	if t := resp.TableResult; t != nil && t.Success {
		fmt.Fprintf(w, "表格: %s (%s)  写入: %d 条\n", t.TableName, t.TableID, resp.TableRecordCount)
	}
}
