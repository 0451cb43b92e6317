// Package proforma renders priced quotes into PDF documents and delivers
// them over WhatsApp, archiving every document in object storage.
package proforma

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"shrimpquote_backend/internal/conversation"
	"shrimpquote_backend/platform/logger"
)

// Messenger delivers the finished document or, failing that, a text with
// a retrieval link.
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
	SendDocument(ctx context.Context, phone, caption, filename string, data []byte) error
}

// Service implements the conversation engine's document collaborator.
// With a queue configured, Deliver enqueues a background render job;
// without one it renders inline.
type Service struct {
	queue     *asynq.Client
	gotenberg *Gotenberg
	archive   *Archive
	messenger Messenger
	log       *logger.Logger
}

func NewService(queue *asynq.Client, gotenberg *Gotenberg, archive *Archive, messenger Messenger, log *logger.Logger) *Service {
	return &Service{
		queue:     queue,
		gotenberg: gotenberg,
		archive:   archive,
		messenger: messenger,
		log:       log,
	}
}

// Deliver accepts a finished quote for document generation.
func (s *Service) Deliver(ctx context.Context, req conversation.DocumentRequest) (string, error) {
	payload := RenderPayload{
		JobID:       uuid.NewString(),
		Sender:      req.Sender,
		Language:    req.Language,
		ClientName:  req.ClientName,
		Destination: req.Destination,
		Quotes:      req.Quotes,
	}

	if s.queue != nil {
		task, err := NewRenderTask(payload)
		if err != nil {
			return "", err
		}
		_, err = s.queue.EnqueueContext(ctx, task,
			asynq.Queue(QueueProformas),
			asynq.MaxRetry(3),
			asynq.Timeout(2*time.Minute),
		)
		if err != nil {
			return "", fmt.Errorf("enqueue proforma job: %w", err)
		}
		s.log.Info("proforma job enqueued", "job", payload.JobID, "sender", payload.Sender)
		return "", nil
	}

	return s.process(ctx, payload, false)
}

// HandleRender is the asynq worker entry point. The worker has no caller
// waiting to relay a fallback link, so it messages the buyer itself.
func (s *Service) HandleRender(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRenderPayload(task)
	if err != nil {
		return fmt.Errorf("parse proforma payload: %w", err)
	}
	if _, err := s.process(ctx, payload, true); err != nil {
		return err
	}
	return nil
}

// process renders, archives and delivers one proforma. The returned link
// is non-empty only when direct delivery failed and the archived copy was
// offered instead; with selfNotify the service sends the link text to the
// buyer rather than leaving that to the caller.
func (s *Service) process(ctx context.Context, payload RenderPayload, selfNotify bool) (string, error) {
	if len(payload.Quotes) == 0 {
		return "", fmt.Errorf("proforma job %s has no quotes", payload.JobID)
	}

	key := fmt.Sprintf("proformas/%s/%s.pdf", time.Now().UTC().Format("2006/01"), payload.JobID)

	// The presigned link exists before the upload so it can live inside
	// the document's own QR code.
	link := ""
	if s.archive != nil {
		presigned, err := s.archive.DownloadLink(ctx, key)
		if err != nil {
			s.log.CollaboratorError("minio", err)
		} else {
			link = presigned
		}
	}

	html, err := renderHTML(payload)
	if err != nil {
		return "", err
	}
	footer, err := renderFooter(proformaNumber(payload.JobID), link)
	if err != nil {
		return "", err
	}

	pdf, err := s.gotenberg.ConvertHTML(ctx, html, footer)
	if err != nil {
		return "", fmt.Errorf("convert proforma %s: %w", payload.JobID, err)
	}

	if s.archive != nil {
		if err := s.archive.Store(ctx, key, pdf); err != nil {
			s.log.CollaboratorError("minio", err)
			link = ""
		}
	}

	filename := proformaNumber(payload.JobID) + ".pdf"
	caption := "📄 " + proformaNumber(payload.JobID)
	if err := s.messenger.SendDocument(ctx, payload.Sender, caption, filename, pdf); err != nil {
		s.log.CollaboratorError("whatsapp", err)
		if link == "" {
			return "", fmt.Errorf("deliver proforma %s: %w", payload.JobID, err)
		}
		if selfNotify {
			text := fallbackText(payload.Language, link)
			if sendErr := s.messenger.SendMessage(ctx, payload.Sender, text); sendErr != nil {
				return "", fmt.Errorf("deliver proforma link %s: %w", payload.JobID, sendErr)
			}
		}
		return link, nil
	}

	s.log.Info("proforma delivered", "job", payload.JobID, "sender", payload.Sender, "quotes", len(payload.Quotes))
	return "", nil
}

func fallbackText(language, link string) string {
	if language == "en" {
		return "⚠️ I could not attach the document directly. Download your proforma here:\n" + link
	}
	return "⚠️ No pude adjuntar el documento directamente. Descarga tu proforma aquí:\n" + link
}
