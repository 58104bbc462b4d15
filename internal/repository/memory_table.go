package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/dataminer/internal/model"
)

// MemoryTableStore 内存中的表格宿主，命令行试运行和测试使用
type MemoryTableStore struct {
	mu       sync.RWMutex
	tables   []*memoryTable
	selected string
	now      func() time.Time
}

func NewMemoryTableStore() *MemoryTableStore {
	return &MemoryTableStore{now: time.Now}
}

func (s *MemoryTableStore) GetTableMetaList(ctx context.Context) ([]model.TableMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]model.TableMeta, 0, len(s.tables))
	for _, t := range s.tables {
		list = append(list, model.TableMeta{ID: t.id, Name: t.name, CreatedAt: t.createdAt})
	}
	return list, nil
}

func (s *MemoryTableStore) GetTableByID(ctx context.Context, id string) (Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.find(id); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
}

func (s *MemoryTableStore) find(id string) *memoryTable {
	for _, t := range s.tables {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (s *MemoryTableStore) AddTable(ctx context.Context, name string, fields []model.FieldConfig) (string, error) {
	t := &memoryTable{id: uuid.NewString(), name: name, createdAt: s.now(), now: s.now}
	for _, f := range fields {
		if _, err := t.AddField(ctx, f); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	s.tables = append(s.tables, t)
	s.mu.Unlock()
	return t.id, nil
}

func (s *MemoryTableStore) GetSelection(ctx context.Context) (*model.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &model.Selection{TableID: s.selected}, nil
}

func (s *MemoryTableStore) SelectTable(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.find(id) == nil {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	s.selected = id
	return nil
}

type memoryTable struct {
	id        string
	name      string
	createdAt time.Time
	now       func() time.Time

	mu      sync.RWMutex
	fields  []model.TableFieldMeta
	records []model.TableRecord
}

func (t *memoryTable) ID() string   { return t.id }
func (t *memoryTable) Name() string { return t.name }

func (t *memoryTable) GetFieldMetaList(ctx context.Context) ([]model.TableFieldMeta, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.TableFieldMeta, len(t.fields))
	copy(out, t.fields)
	return out, nil
}

func (t *memoryTable) AddField(ctx context.Context, field model.FieldConfig) (string, error) {
	if err := validateFieldConfig(field); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range t.fields {
		if f.Name == field.Name {
			return "", fmt.Errorf("字段 %s 已存在", field.Name)
		}
	}
	id := uuid.NewString()
	t.fields = append(t.fields, model.TableFieldMeta{ID: id, Name: field.Name, Type: field.Type, Property: field.Property})
	return id, nil
}

func (t *memoryTable) index() map[string]model.TableFieldMeta {
	index := make(map[string]model.TableFieldMeta, len(t.fields))
	for _, f := range t.fields {
		index[f.ID] = f
	}
	return index
}

func (t *memoryTable) AddRecords(ctx context.Context, records []model.RecordFields) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	index := t.index()
	for i, rec := range records {
		if err := validateRecord(index, rec); err != nil {
			return nil, fmt.Errorf("第 %d 条记录无效: %w", i+1, err)
		}
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, t.insert(rec))
	}
	return ids, nil
}

func (t *memoryTable) AddRecord(ctx context.Context, record model.RecordFields) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := validateRecord(t.index(), record); err != nil {
		return "", err
	}
	return t.insert(record), nil
}

func (t *memoryTable) insert(rec model.RecordFields) string {
	fields := make(model.RecordFields, len(rec))
	for k, v := range rec {
		fields[k] = v
	}
	r := model.TableRecord{ID: uuid.NewString(), Fields: fields, CreatedAt: t.now()}
	t.records = append(t.records, r)
	return r.ID
}

func (t *memoryTable) ListRecords(ctx context.Context, limit, offset int) ([]model.TableRecord, int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := int64(len(t.records))
	if offset >= len(t.records) {
		return []model.TableRecord{}, total, nil
	}
	end := len(t.records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]model.TableRecord, end-offset)
	copy(out, t.records[offset:end])
	return out, total, nil
}
