package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"coop-backoffice/internal/clients"
	"coop-backoffice/internal/domain"
	"coop-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
)

// ExportStatus is the redis-backed state of one async export job.
type ExportStatus struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	SessionID int64     `json:"session_id"`
	Filters   any       `json:"filters"`
	Progress  float64   `json:"progress"`
	FileURL   *string   `json:"file_url"`
	Error     *string   `json:"error,omitempty"`
	Created   time.Time `json:"created_at"`
}

type ExportPaymentStore interface {
	List(ctx context.Context, f repository.PaymentsFilter) ([]domain.Payment, error)
}

type PaymentColumn struct {
	Header string
	Value  func(p domain.Payment) any
}

func nullMoney(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func timePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02 15:04:05")
}

var paymentColumns = map[string]PaymentColumn{
	"id":           {Header: "ID", Value: func(p domain.Payment) any { return p.ID }},
	"partner_name": {Header: "Socio", Value: func(p domain.Payment) any { return p.PartnerName }},
	"loan_id":      {Header: "Prestamo", Value: func(p domain.Payment) any { return p.LoanID }},
	"payment_type": {Header: "Tipo", Value: func(p domain.Payment) any { return string(p.Type) }},
	"payment_date": {Header: "Fecha de pago", Value: func(p domain.Payment) any { return p.PaymentDate }},
	"total_amount": {Header: "Total", Value: func(p domain.Payment) any { return nullMoney(p.TotalAmount) }},
	"capital_amount": {Header: "Capital", Value: func(p domain.Payment) any {
		return nullMoney(p.CapitalAmount)
	}},
	"interest_amount": {Header: "Interes", Value: func(p domain.Payment) any {
		return nullMoney(p.InterestAmount)
	}},
	"installments": {Header: "Cuotas", Value: func(p domain.Payment) any { return len(p.InstallmentIDs) }},
	"created_at":   {Header: "Registrado", Value: func(p domain.Payment) any { return timePtr(p.CreatedAt) }},
}

// ExportService generates payment spreadsheets in the background, tracking
// job progress in redis and pushing updates over the websocket hub.
type ExportService struct {
	repo    ExportPaymentStore
	redis   *clients.RedisClient
	storage *clients.StorageClient
	archive *clients.S3Client
	ws      *clients.WebSocketClient
}

func NewExportService(repo ExportPaymentStore, redis *clients.RedisClient, storage *clients.StorageClient, archive *clients.S3Client, ws *clients.WebSocketClient) *ExportService {
	return &ExportService{repo: repo, redis: redis, storage: storage, archive: archive, ws: ws}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

func (s *ExportService) StartPaymentsExport(ctx context.Context, selected []string, filter repository.PaymentsFilter, sessionID int64) (string, error) {
	if len(selected) == 0 {
		selected = []string{"payment_date", "partner_name", "loan_id", "payment_type", "total_amount", "capital_amount", "interest_amount"}
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:       exportID,
		Type:      "payments",
		SessionID: sessionID,
		Filters:   selected,
		Progress:  0,
		Created:   time.Now(),
	}
	_ = s.saveStatus(ctx, status)

	go s.runPaymentsExport(context.Background(), status, selected, filter)

	return exportID, nil
}

func (s *ExportService) runPaymentsExport(ctx context.Context, status *ExportStatus, selected []string, filter repository.PaymentsFilter) {
	payments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("list payments: %v", err))
		return
	}

	var cols []PaymentColumn
	for _, key := range selected {
		if col, ok := paymentColumns[key]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		s.failExport(ctx, status, "no known columns selected")
		return
	}

	f := excelize.NewFile()
	sheet := "Pagos"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range cols {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cellName, col.Header)
	}

	total := len(payments)
	chunkSize := 1000
	for i, p := range payments {
		for colIdx, col := range cols {
			cellName, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cellName, col.Value(p))
		}

		if (i+1)%chunkSize == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
			// 100 is reserved for "file ready"
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = s.saveStatus(ctx, status)
			if s.ws != nil {
				_ = s.ws.NotifyTaskProgress(ctx, status.SessionID, status.Key, progress, "generating")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("write workbook: %v", err))
		return
	}

	fileName := fmt.Sprintf("pagos_%s.xlsx", time.Now().Format("20060102_150405"))

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyTaskProgress(ctx, status.SessionID, status.Key, 95, "uploading")
	}

	savedName, err := s.storage.Save(ctx, fileName, buf.Bytes())
	if err != nil {
		s.failExport(ctx, status, fmt.Sprintf("save export: %v", err))
		return
	}
	url := s.storage.GetURL(savedName)

	if s.archive != nil {
		if key, err := s.archive.UploadXLSX(ctx, fileName, buf.Bytes()); err != nil {
			log.Printf("export %s: archive upload failed: %v", status.Key, err)
		} else if signed, err := s.archive.GetTemporaryURL(ctx, key, 48*time.Hour); err == nil {
			url = signed
		}
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyTaskProgress(ctx, status.SessionID, status.Key, 100, "ready")
		_ = s.ws.NotifyTaskComplete(ctx, status.SessionID, status.Key, url, fileName)
	}
}

func (s *ExportService) failExport(ctx context.Context, status *ExportStatus, msg string) {
	log.Printf("export %s: %s", status.Key, msg)
	status.Error = &msg
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyTaskFailed(ctx, status.SessionID, status.Key, msg)
	}
}

// ListExports returns the caller's export jobs, newest first.
func (s *ExportService) ListExports(ctx context.Context, sessionID int64) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("list export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}
		var st ExportStatus
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			continue
		}
		if st.SessionID == sessionID {
			statuses = append(statuses, st)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string, sessionID int64) (*ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", exportID, domain.ErrNotFound)
	}

	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("parse export status: %w", err)
	}
	if st.SessionID != sessionID {
		return nil, fmt.Errorf("export %s: %w", exportID, domain.ErrNotFound)
	}
	return &st, nil
}
