// Package storage 定義各儲存實作共用的哨兵錯誤，供呼叫端以 errors.Is 判斷。
package storage

import "errors"

var (
	// ErrNotFound 表示指定的記錄不存在，或不屬於查詢的擁有者
	ErrNotFound = errors.New("找不到指定的記錄")

	// ErrUnavailable 表示儲存層暫時無法使用，呼叫端可重試
	ErrUnavailable = errors.New("資料庫暫時無法使用")
)
