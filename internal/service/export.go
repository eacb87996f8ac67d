package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/glucolog/backend/config"
	"github.com/glucolog/backend/internal/analysis"
	"github.com/glucolog/backend/internal/models"
)

const exportSheetName = "Catatan Gula Darah"

// Export column labels are intentionally Indonesian, matching the document
// format users already receive.
var exportHeaders = []string{
	"Tanggal",
	"Waktu",
	"Gula Darah (mg/dL)",
	"Usia (tahun)",
	"Jenis",
	"Deskripsi",
	"Kondisi",
	"Status",
}

// ExportService renders a reading list as XLSX or PDF and optionally shares
// the file through S3. The S3 config may be nil, which disables sharing.
type ExportService struct {
	s3Config *config.S3Config
}

func NewExportService(s3Config *config.S3Config) *ExportService {
	return &ExportService{s3Config: s3Config}
}

// CanShare reports whether an object store is configured for share links.
func (s *ExportService) CanShare() bool {
	return s.s3Config != nil
}

// BuildXLSX renders the readings as a spreadsheet.
func (s *ExportService) BuildXLSX(records []models.Reading) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for row, r := range records {
		values := []interface{}{
			r.Date,
			r.Time,
			r.BloodSugar,
			r.Age,
			typeLabel(r.Type),
			r.Description,
			conditionLabel(r.Condition),
			statusLabel(analysis.Status(r.BloodSugar, r.Age)),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPDF renders the readings as a PDF table.
func (s *ExportService) BuildPDF(records []models.Reading) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, exportSheetName)
	pdf.Ln(14)

	colWidths := []float64{28, 20, 36, 26, 26, 60, 34, 34}

	pdf.SetFont("Arial", "B", 9)
	for i, header := range exportHeaders {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, r := range records {
		values := []string{
			r.Date,
			r.Time,
			fmt.Sprintf("%.0f", r.BloodSugar),
			r.Age,
			typeLabel(r.Type),
			r.Description,
			conditionLabel(r.Condition),
			statusLabel(analysis.Status(r.BloodSugar, r.Age)),
		}
		for i, v := range values {
			pdf.CellFormat(colWidths[i], 8, v, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Share uploads an export file to S3 and returns a presigned URL valid for
// 24 hours.
func (s *ExportService) Share(ctx context.Context, data []byte, extension, contentType string) (string, error) {
	if s.s3Config == nil {
		return "", fmt.Errorf("export sharing is not configured")
	}

	key := fmt.Sprintf("exports/%s.%s", uuid.New().String(), extension)
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.s3Config.GeneratePresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to presign export URL: %w", err)
	}

	log.Printf("[ExportService] shared export %s", key)
	return url, nil
}

func typeLabel(t string) string {
	switch t {
	case "drink":
		return "Minuman"
	default:
		return "Makanan"
	}
}

func conditionLabel(c string) string {
	switch c {
	case "fasting":
		return "Puasa"
	case "after-meal":
		return "Setelah Makan"
	case "before-sleep":
		return "Sebelum Tidur"
	default:
		return "Sewaktu"
	}
}

func statusLabel(status string) string {
	switch status {
	case analysis.StatusLow:
		return "Rendah"
	case analysis.StatusHigh:
		return "Tinggi"
	case analysis.StatusUndetermined:
		return "Tidak dapat ditentukan"
	default:
		return "Normal"
	}
}
