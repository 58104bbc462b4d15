package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/user/dataminer/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TableStore 基于 postgres 的表格宿主
type TableStore struct {
	db *gorm.DB
}

func NewTableStore(db *gorm.DB) *TableStore {
	return &TableStore{db: db}
}

// GetTableMetaList 所有表格，按创建时间排序
func (s *TableStore) GetTableMetaList(ctx context.Context) ([]model.TableMeta, error) {
	var tables []model.DataTable
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	list := make([]model.TableMeta, 0, len(tables))
	for _, t := range tables {
		list = append(list, model.TableMeta{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	}
	return list, nil
}

// GetTableByID 根据 ID 获取表格
func (s *TableStore) GetTableByID(ctx context.Context, id string) (Table, error) {
	var t model.DataTable
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &gormTable{db: s.db, meta: t}, nil
}

// AddTable 创建表格和初始字段
func (s *TableStore) AddTable(ctx context.Context, name string, fields []model.FieldConfig) (string, error) {
	for _, f := range fields {
		if err := validateFieldConfig(f); err != nil {
			return "", err
		}
	}

	t := model.DataTable{ID: uuid.NewString(), Name: name}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		for i, f := range fields {
			row, err := newDataField(t.ID, f, i)
			if err != nil {
				return err
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("创建字段 %s 失败: %w", f.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// GetSelection 当前选中的表格，没有选中时返回空选择
func (s *TableStore) GetSelection(ctx context.Context) (*model.Selection, error) {
	var t model.DataTable
	err := s.db.WithContext(ctx).Where("selected = ?", true).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Selection{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.Selection{TableID: t.ID}, nil
}

// SelectTable 选中表格，同时只能选中一个
func (s *TableStore) SelectTable(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.DataTable{}).Where("id = ?", id).Update("selected", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrTableNotFound, id)
		}
		return tx.Model(&model.DataTable{}).Where("id <> ? AND selected = ?", id, true).Update("selected", false).Error
	})
}

func newDataField(tableID string, f model.FieldConfig, position int) (*model.DataField, error) {
	row := &model.DataField{
		ID:       uuid.NewString(),
		TableID:  tableID,
		Name:     f.Name,
		Type:     f.Type,
		Position: position,
	}
	if f.Property != nil {
		raw, err := json.Marshal(f.Property)
		if err != nil {
			return nil, fmt.Errorf("序列化字段属性失败: %w", err)
		}
		row.Property = datatypes.JSON(raw)
	}
	return row, nil
}

// gormTable 数据库中的单个表格
type gormTable struct {
	db   *gorm.DB
	meta model.DataTable
}

func (t *gormTable) ID() string   { return t.meta.ID }
func (t *gormTable) Name() string { return t.meta.Name }

func (t *gormTable) GetFieldMetaList(ctx context.Context) ([]model.TableFieldMeta, error) {
	var rows []model.DataField
	if err := t.db.WithContext(ctx).Where("table_id = ?", t.meta.ID).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]model.TableFieldMeta, 0, len(rows))
	for _, r := range rows {
		meta := model.TableFieldMeta{ID: r.ID, Name: r.Name, Type: r.Type}
		if len(r.Property) > 0 {
			var p model.FieldProperty
			if err := json.Unmarshal(r.Property, &p); err != nil {
				log.Printf("[TableStore] 字段属性解析失败 %s: %v", r.Name, err)
			} else {
				meta.Property = &p
			}
		}
		list = append(list, meta)
	}
	return list, nil
}

func (t *gormTable) AddField(ctx context.Context, field model.FieldConfig) (string, error) {
	if err := validateFieldConfig(field); err != nil {
		return "", err
	}
	var count int64
	if err := t.db.WithContext(ctx).Model(&model.DataField{}).Where("table_id = ?", t.meta.ID).Count(&count).Error; err != nil {
		return "", err
	}
	row, err := newDataField(t.meta.ID, field, int(count))
	if err != nil {
		return "", err
	}
	if err := t.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("创建字段 %s 失败: %w", field.Name, err)
	}
	return row.ID, nil
}

func (t *gormTable) fieldIndex(ctx context.Context) (map[string]model.TableFieldMeta, error) {
	fields, err := t.GetFieldMetaList(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]model.TableFieldMeta, len(fields))
	for _, f := range fields {
		index[f.ID] = f
	}
	return index, nil
}

// AddRecords 在一个事务中写入，任意一行校验失败则整批不写入
func (t *gormTable) AddRecords(ctx context.Context, records []model.RecordFields) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	index, err := t.fieldIndex(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]model.DataRecord, len(records))
	for i, rec := range records {
		if err := validateRecord(index, rec); err != nil {
			return nil, fmt.Errorf("第 %d 条记录无效: %w", i+1, err)
		}
		rows[i] = model.DataRecord{ID: uuid.NewString(), TableID: t.meta.ID, Fields: datatypes.JSONMap(rec)}
	}

	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, len(rows)).Error
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids, nil
}

func (t *gormTable) AddRecord(ctx context.Context, record model.RecordFields) (string, error) {
	index, err := t.fieldIndex(ctx)
	if err != nil {
		return "", err
	}
	if err := validateRecord(index, record); err != nil {
		return "", err
	}
	row := model.DataRecord{ID: uuid.NewString(), TableID: t.meta.ID, Fields: datatypes.JSONMap(record)}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

// ListRecords 分页读取，按写入顺序
func (t *gormTable) ListRecords(ctx context.Context, limit, offset int) ([]model.TableRecord, int64, error) {
	var total int64
	db := t.db.WithContext(ctx)
	if err := db.Model(&model.DataRecord{}).Where("table_id = ?", t.meta.ID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.DataRecord
	if err := recordPage(db, t.meta.ID, limit, offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	list := make([]model.TableRecord, 0, len(rows))
	for _, r := range rows {
		list = append(list, model.TableRecord{ID: r.ID, Fields: model.RecordFields(r.Fields), CreatedAt: r.CreatedAt})
	}
	return list, total, nil
}

// recordPage 一页记录的查询，按写入序号排序
func recordPage(db *gorm.DB, tableID string, limit, offset int) *gorm.DB {
	return db.Where("table_id = ?", tableID).Order("seq ASC").Limit(limit).Offset(offset)
}
