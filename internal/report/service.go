package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/signintech/gopdf"

	"dental-intake-agent/internal/intake"
)

// TelegramClient is the delivery channel for clinic reports.
type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// Service renders a PDF summary of a completed intake and sends it to the
// clinic chat. It runs once per session, when the dialogue reaches the
// photo-request stage.
type Service struct {
	tgClient     TelegramClient
	clinicChatID int64
}

func NewService(tg TelegramClient, clinicChatID int64) *Service {
	return &Service{tgClient: tg, clinicChatID: clinicChatID}
}

func (s *Service) SendClinicReport(ctx context.Context, sess intake.Session) error {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	// Common DejaVuSans locations across distros.
	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}
	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return errors.Wrap(fontErr, "failed to load font for PDF, ensure ttf-dejavu is installed")
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return err
	}
	pdf.Cell(nil, "Dental Intake Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Thread ID: %s", sess.ID))
	pdf.Br(25)

	info := sess.Collected()

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, "Collected information:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return err
	}
	writeLine := func(line string) {
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
	writeLine(fmt.Sprintf("- Age: %s", orDash(info.Age)))
	writeLine(fmt.Sprintf("- Gender: %s", orDash(info.Gender)))
	writeLine(fmt.Sprintf("- Affected area: %s", orDash(info.AffectedArea)))
	writeLine(fmt.Sprintf("- Duration: %s", orDash(info.Duration)))
	writeLine(fmt.Sprintf("- Dental history: %s", orDash(info.DentalHistory)))
	writeLine(fmt.Sprintf("- Smoking status: %s", orDash(info.SmokingStatus)))
	pdf.Br(10)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, "Reported symptoms:")
	pdf.Br(15)
	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return err
	}
	if len(info.Symptoms) == 0 {
		writeLine("- none reported")
	}
	for name, value := range info.Symptoms {
		writeLine(fmt.Sprintf("- %s: %s", name, value))
	}
	pdf.Br(10)

	if info.OtherInformation != "" {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, "Additional notes:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		writeLine(info.OtherInformation)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return errors.Wrap(err, "failed to write PDF")
	}

	fileName := fmt.Sprintf("intake_%s.pdf", sess.ID)
	if err := s.tgClient.SendDocument(ctx, s.clinicChatID, buf.Bytes(), fileName); err != nil {
		return errors.Wrap(err, "failed to deliver clinic report")
	}
	log.Info().Str("thread_id", sess.ID).Int64("chat_id", s.clinicChatID).Msg("clinic report sent")
	return nil
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
