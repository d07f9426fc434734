package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"symptom-checker/internal/journal"
	"symptom-checker/internal/scoring"
)

var (
	ErrNotConfigured   = errors.New("report delivery is not configured")
	ErrFontUnavailable = errors.New("no usable font for PDF report")
)

// DefaultFontPaths are tried after the configured font path. DejaVuSans
// covers the Turkish alphabet.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontFamily  = "DejaVu"
	pageMargin  = 40.0
	textWidth   = 500.0
	pageBottom  = 790.0
	disclaimer  = "Bu rapor bilgilendirme amaçlıdır ve tıbbi teşhis yerine geçmez."
	reportTitle = "Semptom Günlüğü Raporu"
)

// Sender is the chat transport, implemented by the Telegram client.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName, caption string) error
}

type Service struct {
	sender       Sender
	doctorChatID int64
	fontPaths    []string
	logger       *zap.Logger
}

// NewService builds a report service; fontPath may be empty.
func NewService(sender Sender, doctorChatID int64, fontPath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	paths := DefaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, DefaultFontPaths...)
	}
	return &Service{
		sender:       sender,
		doctorChatID: doctorChatID,
		fontPaths:    paths,
		logger:       logger,
	}
}

// SendEntryReport renders e and sends it to the clinician chat.
func (s *Service) SendEntryReport(ctx context.Context, e journal.Entry) error {
	if s.sender == nil || s.doctorChatID == 0 {
		return ErrNotConfigured
	}

	data, err := s.Render(e)
	if err != nil {
		return err
	}

	fileName := FileName(e)
	s.logger.Info("sending journal report",
		zap.String("entry_id", e.ID.String()),
		zap.Int64("chat_id", s.doctorChatID),
		zap.Int("bytes", len(data)))
	if err := s.sender.SendDocument(ctx, s.doctorChatID, data, fileName, Caption(e)); err != nil {
		s.logger.Error("failed to send journal report", zap.String("entry_id", e.ID.String()), zap.Error(err))
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// SendEmergencyAlert posts a short text alert for an emergency entry to the
// clinician chat. Non-emergency entries are ignored.
func (s *Service) SendEmergencyAlert(ctx context.Context, e journal.Entry) error {
	if !e.Emergency {
		return nil
	}
	if s.sender == nil || s.doctorChatID == 0 {
		return ErrNotConfigured
	}
	if err := s.sender.SendMessage(ctx, s.doctorChatID, AlertText(e)); err != nil {
		s.logger.Error("failed to send emergency alert", zap.String("entry_id", e.ID.String()), zap.Error(err))
		return fmt.Errorf("send alert: %w", err)
	}
	s.logger.Info("emergency alert sent", zap.String("entry_id", e.ID.String()), zap.Int64("chat_id", s.doctorChatID))
	return nil
}

// Render produces the A4 PDF for a journal entry.
func (s *Service) Render(e journal.Entry) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.SetMargins(pageMargin, pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}

	w := &writer{pdf: &pdf}
	w.text(reportTitle, 20, 30)
	for _, sec := range sections(e) {
		if sec.heading != "" {
			w.text(sec.heading, 14, 18)
		}
		for _, line := range sec.lines {
			w.wrapped(line, 11, 14)
		}
		w.br(10)
	}
	w.text(disclaimer, 9, 12)
	if w.err != nil {
		return nil, fmt.Errorf("render report: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err != nil {
			lastErr = err
			continue
		}
		s.logger.Debug("loaded report font", zap.String("path", path))
		return nil
	}
	return fmt.Errorf("%w: %v", ErrFontUnavailable, lastErr)
}

// writer keeps the first gopdf error and adds pages as the cursor nears the
// bottom margin.
type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) setFont(size float64) {
	if w.err == nil {
		w.err = w.pdf.SetFont(fontFamily, "", size)
	}
}

func (w *writer) text(s string, size, lineHeight float64) {
	w.setFont(size)
	w.line(s, lineHeight)
}

func (w *writer) wrapped(s string, size, lineHeight float64) {
	w.setFont(size)
	if w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(s, textWidth)
	if err != nil {
		lines = []string{s}
	}
	for _, l := range lines {
		w.line(l, lineHeight)
	}
}

func (w *writer) line(s string, lineHeight float64) {
	if w.err != nil {
		return
	}
	if w.pdf.GetY()+lineHeight > pageBottom {
		w.pdf.AddPage()
	}
	w.pdf.SetX(pageMargin)
	w.err = w.pdf.Cell(nil, s)
	w.br(lineHeight)
}

func (w *writer) br(h float64) {
	if w.err == nil {
		w.pdf.Br(h)
	}
}

type section struct {
	heading string
	lines   []string
}

func sections(e journal.Entry) []section {
	header := section{lines: []string{
		fmt.Sprintf("Tarih: %s", e.CreatedAt.Format("02.01.2006 15:04")),
		fmt.Sprintf("Kullanıcı: %s", e.UserID),
		fmt.Sprintf("Kayıt No: %s", e.ID),
	}}
	out := []section{header}

	if e.Emergency {
		out = append(out, section{heading: "ACİL DURUM", lines: []string{scoring.EmergencyDirective}})
	}

	symptoms := section{heading: "Belirtiler:"}
	if len(e.Symptoms) == 0 {
		symptoms.lines = append(symptoms.lines, "- Belirti kaydedilmedi.")
	}
	for _, name := range e.Symptoms {
		symptoms.lines = append(symptoms.lines, "- "+name)
	}
	out = append(out, symptoms)

	if len(e.Results) > 0 {
		results := append([]journal.DiseaseProbability{}, e.Results...)
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Probability > results[j].Probability
		})
		sec := section{heading: "Olası Durumlar:"}
		for _, r := range results {
			sec.lines = append(sec.lines, fmt.Sprintf("- %s: %%%.0f", ConditionName(r.Name), r.Probability*100))
		}
		out = append(out, sec)
	}
	return out
}

// ConditionName translates scorer bucket names; other names pass through.
func ConditionName(name string) string {
	switch scoring.Bucket(name) {
	case scoring.BucketCold:
		return "Soğuk Algınlığı"
	case scoring.BucketFlu:
		return "Grip"
	case scoring.BucketAllergy:
		return "Alerji"
	default:
		return name
	}
}

// AlertText is the plain-text message sent for emergency entries.
func AlertText(e journal.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ACİL DURUM • %s • %s\n", e.UserID, e.CreatedAt.Format("02.01.2006 15:04"))
	if len(e.Symptoms) > 0 {
		fmt.Fprintf(&b, "Belirtiler: %s\n", strings.Join(e.Symptoms, ", "))
	}
	fmt.Fprintf(&b, "Kayıt No: %s\n", e.ID)
	b.WriteString(scoring.EmergencyDirective)
	return b.String()
}

func FileName(e journal.Entry) string {
	return fmt.Sprintf("report_%s.pdf", e.ID.String())
}

func Caption(e journal.Entry) string {
	var b strings.Builder
	if e.Emergency {
		b.WriteString("ACİL • ")
	}
	fmt.Fprintf(&b, "%s • %s", e.UserID, e.CreatedAt.Format("02.01.2006 15:04"))
	return b.String()
}
