package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// JsonNullString 是 sql.NullString 的包裝類型，讓可為 NULL 的欄位在 JSON
// 中序列化為 null 而不是 {"String":"","Valid":false}。
type JsonNullString struct {
	sql.NullString
}

// NewJsonNullString 依字串是否為空建立 JsonNullString
func NewJsonNullString(s string) JsonNullString {
	return JsonNullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON 為 JsonNullString 實現 json.Marshaler 介面。
func (jns JsonNullString) MarshalJSON() ([]byte, error) {
	if !jns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(jns.String)
}

// UnmarshalJSON 為 JsonNullString 實現 json.Unmarshaler 介面。
func (jns *JsonNullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		jns.String, jns.Valid = "", false
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		jns.String, jns.Valid = "", false
		return fmt.Errorf("JsonNullString: 期望 JSON 字串或 null，但得到 '%s': %w", string(data), err)
	}
	jns.String, jns.Valid = s, true
	return nil
}
