// Package entity 定义领域实体
package entity

import "strings"

// Document 文档源中的一份文档（含 OCR 全文与元数据）
type Document struct {
	ID                  int64    `json:"id"`
	Title               string   `json:"title"`
	Content             string   `json:"content"`
	Correspondent       string   `json:"correspondent,omitempty"`
	DocumentType        string   `json:"document_type,omitempty"`
	Tags                []string `json:"tags,omitempty"`
	Created             string   `json:"created,omitempty"`
	ArchiveSerialNumber string   `json:"archive_serial_number,omitempty"`
}

// HasContent 检查文档是否包含可索引的文本
func (d *Document) HasContent() bool {
	return strings.TrimSpace(d.Content) != ""
}

// TagString 以逗号拼接标签（向量库元数据为纯文本列）
func (d *Document) TagString() string {
	return strings.Join(d.Tags, ", ")
}
