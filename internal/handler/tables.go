package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/dataminer/internal/repository"
	"github.com/user/dataminer/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ListTables 表格列表
func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.Extraction.AvailableTables(c.Request.Context())
	if err != nil {
		utils.InternalServerError(c, "获取表格列表失败")
		return
	}
	utils.Success(c, tables)
}

// CurrentSelection 当前选中的表格
func (h *Handler) CurrentSelection(c *gin.Context) {
	utils.Success(c, h.Extraction.CurrentSelection(c.Request.Context()))
}

// SelectTable 切换当前表格
func (h *Handler) SelectTable(c *gin.Context) {
	id := c.Param("id")
	if err := h.Extraction.SelectTable(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			utils.NotFound(c, "表格不存在")
			return
		}
		utils.InternalServerError(c, "选择表格失败")
		return
	}
	utils.Success(c, h.Extraction.CurrentSelection(c.Request.Context()))
}

// TableRecords 分页查看表格记录
func (h *Handler) TableRecords(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	table, err := h.Tables.GetTableByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			utils.NotFound(c, "表格不存在")
			return
		}
		utils.InternalServerError(c, "获取表格失败")
		return
	}
	fields, err := table.GetFieldMetaList(ctx)
	if err != nil {
		utils.InternalServerError(c, "获取字段列表失败")
		return
	}
	records, total, err := table.ListRecords(ctx, limit, offset)
	if err != nil {
		utils.InternalServerError(c, "获取记录失败")
		return
	}

	utils.Success(c, gin.H{
		"tableId": table.ID(),
		"name":    table.Name(),
		"fields":  fields,
		"records": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ExportTable 导出为 xlsx
func (h *Handler) ExportTable(c *gin.Context) {
	var buf bytes.Buffer
	name, err := h.Export.ExportXLSX(c.Request.Context(), c.Param("id"), &buf)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			utils.NotFound(c, "表格不存在")
			return
		}
		log.Printf("[Handler] 导出表格失败: %v", err)
		utils.InternalServerError(c, "导出失败")
		return
	}

	filename := name + ".xlsx"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
