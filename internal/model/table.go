package model

import (
	"time"

	"gorm.io/datatypes"
)

// FieldType 表格列类型
type FieldType string

const (
	FieldText        FieldType = "Text"
	FieldNumber      FieldType = "Number"
	FieldCheckbox    FieldType = "Checkbox"
	FieldURL         FieldType = "Url"
	FieldDateTime    FieldType = "DateTime"
	FieldCreatedTime FieldType = "CreatedTime" // 由表格自动填充，不写入值
)

// Valid 是否是已知的列类型
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldCheckbox, FieldURL, FieldDateTime, FieldCreatedTime:
		return true
	}
	return false
}

// DateTimeDisplayFormat 时间列的显示格式
const DateTimeDisplayFormat = "yyyy/MM/dd HH:mm"

// FieldProperty 列的附加属性（目前只有时间列使用）
type FieldProperty struct {
	DateFormat      string `json:"dateFormat,omitempty"`
	DisplayTimeZone bool   `json:"displayTimeZone"`
	AutoFill        bool   `json:"autoFill"`
}

// FieldConfig 新建列的配置
type FieldConfig struct {
	Name     string         `json:"name"`
	Type     FieldType      `json:"type"`
	Property *FieldProperty `json:"property,omitempty"`
}

// TableFieldMeta 表格中已有的列
type TableFieldMeta struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     FieldType      `json:"type"`
	Property *FieldProperty `json:"property,omitempty"`
}

// TableMeta 表格基本信息
type TableMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Selection 当前选中的表格
type Selection struct {
	TableID string `json:"tableId,omitempty"`
}

// RecordFields 一行待写入的数据，key 为列 ID
type RecordFields map[string]interface{}

// TableRecord 表格中已写入的一行
type TableRecord struct {
	ID        string       `json:"id"`
	Fields    RecordFields `json:"fields"`
	CreatedAt time.Time    `json:"createdAt"`
}

// DataTable 表格（持久化）
type DataTable struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Selected  bool      `gorm:"not null;default:false;index" json:"selected"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DataField 表格列（持久化）
type DataField struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	TableID   string         `gorm:"size:36;not null;uniqueIndex:idx_data_fields_table_name" json:"table_id"`
	Name      string         `gorm:"size:255;not null;uniqueIndex:idx_data_fields_table_name" json:"name"`
	Type      FieldType      `gorm:"size:32;not null" json:"type"`
	Property  datatypes.JSON `json:"property"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time      `json:"created_at"`
}

// DataRecord 表格行（持久化），Fields 以列 ID 为 key
type DataRecord struct {
	ID        string            `gorm:"primaryKey;size:36" json:"id"`
	TableID   string            `gorm:"size:36;not null;index" json:"table_id"`
	Seq       int64             `gorm:"autoIncrement;not null;index" json:"-"` // 写入顺序，同一批次内也递增
	Fields    datatypes.JSONMap `json:"fields"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}
