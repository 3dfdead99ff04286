package models

import "time"

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobCompleted JobStatus = "completed"
)

type ReceiptEncoding string

const (
	// ReceiptBase64 carries encoder output as standard base64.
	ReceiptBase64 ReceiptEncoding = "base64"
	// ReceiptText carries a caller-supplied human-readable fallback.
	ReceiptText ReceiptEncoding = "text"
)

type PrintJob struct {
	ID              string          `json:"id"`
	RestaurantID    string          `json:"restaurantId"`
	OrderData       OrderData       `json:"orderData"`
	ReceiptData     string          `json:"receiptData"`
	ReceiptEncoding ReceiptEncoding `json:"receiptEncoding"`
	Status          JobStatus       `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

type QueueStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}
